package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/realestate/internal/filestore"
	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
)

type propertyService interface {
	CreateProperty(ctx context.Context, p models.Property, images []filestore.Upload) (models.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (models.PropertyDetails, error)
	ListProperties(ctx context.Context, filter repository.ListPropertiesOpts) ([]models.Property, error)
	ListFeatured(ctx context.Context) ([]models.Property, error)
	UpdateProperty(ctx context.Context, id uuid.UUID, p models.Property, images []filestore.Upload) (models.Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (models.Property, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.PropertyStatus) (models.Property, error)
	ImageURL(propertyID uuid.UUID, name string) string
}

type PropertyHandler struct {
	properties propertyService
	logger     logger.Logger
}

func NewProperty(s propertyService, l logger.Logger) *PropertyHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &PropertyHandler{properties: s, logger: l}
}

// Property fields of create and update forms
type PropertyForm struct {
	Title       string              `form:"title" validate:"required,max=200"`
	City        string              `form:"city" validate:"required,max=100"`
	Description string              `form:"description" validate:"required"`
	Address     string              `form:"address" validate:"required"`
	Bedrooms    int                 `form:"bedrooms" validate:"gt=0"`
	Bathrooms   int                 `form:"bathrooms" validate:"gt=0"`
	Size        int                 `form:"size" validate:"gt=0"`
	Price       decimal.Decimal     `form:"price"`
	Latitude    float64             `form:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64             `form:"longitude" validate:"gte=-180,lte=180"`
	Floor       *int                `form:"floor" validate:"omitempty,gt=0"`
	Type        models.PropertyType `form:"type" validate:"required,oneof=residential apartment commercial land"`
	SaleOrRent  models.SaleOrRent   `form:"sale_or_rent" validate:"required,oneof=sale rent"`
	AgentID     uuid.UUID           `form:"agent_id" validate:"required"`
}

func readPropertyForm(f *render.Form) PropertyForm {
	return PropertyForm{
		Title:       f.String("title"),
		City:        f.String("city"),
		Description: f.String("description"),
		Address:     f.String("address"),
		Bedrooms:    f.Int("bedrooms"),
		Bathrooms:   f.Int("bathrooms"),
		Size:        f.Int("size"),
		Price:       f.Decimal("price"),
		Latitude:    f.Float("latitude"),
		Longitude:   f.Float("longitude"),
		Floor:       f.OptionalInt("floor"),
		Type:        models.PropertyType(f.String("type")),
		SaleOrRent:  models.SaleOrRent(f.String("sale_or_rent")),
		AgentID:     f.UUID("agent_id"),
	}
}

func (p PropertyForm) model() models.Property {
	return models.Property{
		Title:       p.Title,
		City:        p.City,
		Description: p.Description,
		Address:     p.Address,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Size:        p.Size,
		Price:       p.Price,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Floor:       p.Floor,
		Type:        p.Type,
		SaleOrRent:  p.SaleOrRent,
		AgentID:     p.AgentID,
	}
}

// Parse and validate property form with its images
// Returns false if error response is written already
func (h *PropertyHandler) bindPropertyForm(w http.ResponseWriter, r *http.Request) (models.Property, []filestore.Upload, func(), bool) {
	noop := func() {}

	f, err := render.ParseForm(w, r)
	if err != nil {
		return models.Property{}, nil, noop, false
	}

	data := readPropertyForm(f)
	images, cleanup := f.Files("files")
	if err := f.Check(w); err != nil {
		cleanup()
		return models.Property{}, nil, noop, false
	}
	if err := render.Validate(w, data); err != nil {
		cleanup()
		return models.Property{}, nil, noop, false
	}
	if !data.Price.IsPositive() {
		cleanup()
		render.DecodeError(w, &render.FieldError{Field: "price"})
		return models.Property{}, nil, noop, false
	}

	return data.model(), images, cleanup, true
}

func (h *PropertyHandler) create(w http.ResponseWriter, r *http.Request) {
	p, images, cleanup, ok := h.bindPropertyForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	created, err := h.properties.CreateProperty(r.Context(), p, images)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSONWithStatus(w, newPropertyResponse(created, h.properties.ImageURL), http.StatusCreated)
}

func (h *PropertyHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListPropertiesOpts{
		SaleOrRent: models.SaleOrRent(q.Get("sale_or_rent")),
		City:       q.Get("city"),
		Type:       models.PropertyType(q.Get("type")),
	}

	if filter.SaleOrRent != "" && !filter.SaleOrRent.Valid() {
		render.DecodeError(w, &render.FieldError{Field: "sale_or_rent"})
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		render.DecodeError(w, &render.FieldError{Field: "type"})
		return
	}

	for field, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		value := q.Get(field)
		if value == "" {
			continue
		}
		price, err := decimal.NewFromString(value)
		if err != nil {
			render.DecodeError(w, &render.FieldError{Field: field, Err: err})
			return
		}
		*dst = &price
	}

	if value := q.Get("agent_id"); value != "" {
		id, err := uuid.Parse(value)
		if err != nil {
			render.DecodeError(w, &render.FieldError{Field: "agent_id", Err: err})
			return
		}
		filter.AgentID = id
	}

	properties, err := h.properties.ListProperties(r.Context(), filter)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, h.responses(properties))
}

func (h *PropertyHandler) featured(w http.ResponseWriter, r *http.Request) {
	properties, err := h.properties.ListFeatured(r.Context())
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, h.responses(properties))
}

func (h *PropertyHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.properties.GetProperty(r.Context(), id)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	res := newPropertyResponse(details.Property, h.properties.ImageURL)
	res.Agent = &AgentResponse{
		ID:          details.Agent.ID,
		Name:        details.Agent.Name,
		Email:       details.Agent.Email,
		PhoneNumber: details.Agent.PhoneNumber,
		AvatarURL:   details.Agent.AvatarURL,
	}
	render.JSON(w, res)
}

func (h *PropertyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, images, cleanup, ok := h.bindPropertyForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	updated, err := h.properties.UpdateProperty(r.Context(), id, p, images)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newPropertyResponse(updated, h.properties.ImageURL))
}

func (h *PropertyHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.properties.DeleteProperty(r.Context(), id); err != nil {
		renderError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) setFeatured(w http.ResponseWriter, r *http.Request) {
	type FeaturedRequest struct {
		Featured *bool `json:"featured" validate:"required"`
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, err := render.BindAndValidate[FeaturedRequest](w, r)
	if err != nil {
		return
	}

	updated, err := h.properties.SetFeatured(r.Context(), id, *data.Featured)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, newPropertyResponse(updated, h.properties.ImageURL))
}

func (h *PropertyHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	type StatusRequest struct {
		Status models.PropertyStatus `json:"status" validate:"required,property_status"`
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, err := render.BindAndValidate[StatusRequest](w, r)
	if err != nil {
		return
	}

	if _, err := h.properties.SetStatus(r.Context(), id, data.Status); err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, MessageResponse{Message: "Property status updated successfully"})
}

func (h *PropertyHandler) responses(properties []models.Property) []PropertyResponse {
	res := make([]PropertyResponse, 0, len(properties))
	for _, p := range properties {
		res = append(res, newPropertyResponse(p, h.properties.ImageURL))
	}
	return res
}
