package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/models"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phone_number"`
	Role        models.Role `json:"role"`
	DateCreated time.Time   `json:"date_created"`
	IsActive    bool        `json:"is_active"`
	AvatarURL   *string     `json:"avatar_url"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		DateCreated: u.CreatedAt,
		IsActive:    u.IsActive,
		AvatarURL:   u.AvatarURL,
	}
}

func newUserResponses(users []models.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, newUserResponse(u))
	}
	return res
}

type AgentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	AvatarURL   *string   `json:"avatar_url"`
}

type PropertyResponse struct {
	ID            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	City          string                `json:"city"`
	Description   string                `json:"description"`
	Address       string                `json:"address"`
	Bedrooms      int                   `json:"bedrooms"`
	Bathrooms     int                   `json:"bathrooms"`
	Size          int                   `json:"size"`
	Price         decimal.Decimal       `json:"price"`
	Latitude      float64               `json:"latitude"`
	Longitude     float64               `json:"longitude"`
	Floor         *int                  `json:"floor"`
	Type          models.PropertyType   `json:"type"`
	SaleOrRent    models.SaleOrRent     `json:"sale_or_rent"`
	AgentID       uuid.UUID             `json:"agent_id"`
	PublishedDate time.Time             `json:"published_date"`
	Featured      bool                  `json:"featured"`
	Status        models.PropertyStatus `json:"status"`
	Images        []string              `json:"images"`
	Agent         *AgentResponse        `json:"agent,omitempty"`
}

// Image file names are turned to public URLs by imageURL
func newPropertyResponse(p models.Property, imageURL func(uuid.UUID, string) string) PropertyResponse {
	images := make([]string, 0, len(p.Images))
	for _, name := range p.Images {
		images = append(images, imageURL(p.ID, name))
	}

	return PropertyResponse{
		ID:            p.ID,
		Title:         p.Title,
		City:          p.City,
		Description:   p.Description,
		Address:       p.Address,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		Size:          p.Size,
		Price:         p.Price,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Floor:         p.Floor,
		Type:          p.Type,
		SaleOrRent:    p.SaleOrRent,
		AgentID:       p.AgentID,
		PublishedDate: p.PublishedDate,
		Featured:      p.Featured,
		Status:        p.Status,
		Images:        images,
	}
}

type AppointmentResponse struct {
	ID                  uuid.UUID                `json:"id"`
	CustomerName        string                   `json:"customer_name"`
	CustomerPhone       string                   `json:"customer_phone"`
	AppointmentDatetime string                   `json:"appointment_datetime"`
	AppointmentStatus   models.AppointmentStatus `json:"appointment_status"`
	PropertyID          uuid.UUID                `json:"property_id"`
	PropertyTitle       string                   `json:"property_title,omitempty"`
	AgentName           string                   `json:"agent_name,omitempty"`
	AgentID             *uuid.UUID               `json:"agent_id,omitempty"`
}

// Appointment time is a wall clock time, so it is rendered without offset
const appointmentTimeLayout = "2006-01-02T15:04:05"

func newAppointmentResponse(a models.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                  a.ID,
		CustomerName:        a.CustomerName,
		CustomerPhone:       a.CustomerPhone,
		AppointmentDatetime: a.StartsAt.Format(appointmentTimeLayout),
		AppointmentStatus:   a.Status,
		PropertyID:          a.PropertyID,
	}
}

func newAppointmentViewResponse(v models.AppointmentView) AppointmentResponse {
	res := newAppointmentResponse(v.Appointment)
	res.PropertyTitle = v.PropertyTitle
	res.AgentName = v.AgentName
	res.AgentID = &v.AgentID
	return res
}

// Parse uuid path value, write 404 if it is not a valid uuid
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.ServiceError(w, "Not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}
