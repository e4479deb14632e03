package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
)

type PropertyRepo struct {
	DB DBTX
}

const propertyColumns = `p.id, p.title, p.description, p.city, p.address, p.bedrooms, p.bathrooms, p.size, p.price,
	p.published_date, p.featured, p.latitude, p.longitude, p.floor, p.type, p.status, p.sale_or_rent, p.agent_id`

const createProperty = `-- name: CreateProperty
INSERT INTO properties AS p (id, title, description, city, address, bedrooms, bathrooms, size, price,
	published_date, featured, latitude, longitude, floor, type, status, sale_or_rent, agent_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING ` + propertyColumns

// Create property and its images
// Has to be called in transaction: property and images are written by separate statements
func (r *PropertyRepo) CreateProperty(ctx context.Context, p models.Property) (models.Property, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.PropertyAvailable
	}
	if p.PublishedDate.IsZero() {
		p.PublishedDate = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createProperty,
		p.ID, p.Title, p.Description, p.City, p.Address, p.Bedrooms, p.Bathrooms, p.Size, p.Price,
		p.PublishedDate, p.Featured, p.Latitude, p.Longitude, p.Floor, p.Type, p.Status, p.SaleOrRent, p.AgentID,
	)
	created, err := pgx.CollectOneRow(rows, rowToProperty)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrAgentNotFound
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	created.Images, err = r.replaceImages(ctx, created.ID, p.Images)
	if err != nil {
		return created, err
	}

	return created, nil
}

const getProperty = `-- name: GetProperty
SELECT ` + propertyColumns + `, u.id, u.name, u.email, u.phone_number, u.avatar_url
FROM properties p
JOIN users u ON u.id = p.agent_id
WHERE p.id = $1
`

func (r *PropertyRepo) GetProperty(ctx context.Context, id uuid.UUID) (models.PropertyDetails, error) {
	rows, _ := r.DB.Query(ctx, getProperty, id)
	details, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.PropertyDetails, error) {
		var d models.PropertyDetails
		p, a := &d.Property, &d.Agent
		err := row.Scan(
			&p.ID, &p.Title, &p.Description, &p.City, &p.Address, &p.Bedrooms, &p.Bathrooms, &p.Size, &p.Price,
			&p.PublishedDate, &p.Featured, &p.Latitude, &p.Longitude, &p.Floor, &p.Type, &p.Status, &p.SaleOrRent, &p.AgentID,
			&a.ID, &a.Name, &a.Email, &a.PhoneNumber, &a.AvatarURL,
		)
		return d, err
	})

	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return details, apperrors.ErrPropertyNotFound
	default:
		return details, fmt.Errorf("db error: %w", err)
	}

	images, err := r.listImages(ctx, []uuid.UUID{details.ID})
	if err != nil {
		return details, err
	}
	details.Images = images[details.ID]

	return details, nil
}

const listProperties = `-- name: ListProperties
SELECT ` + propertyColumns + `
FROM properties p
WHERE ($1::text = '' OR p.status = $1::text)
	AND ($2::text = '' OR p.sale_or_rent = $2::text)
	AND ($3::text = '' OR p.city = $3::text)
	AND ($4::numeric IS NULL OR p.price >= $4::numeric)
	AND ($5::numeric IS NULL OR p.price <= $5::numeric)
	AND ($6::text = '' OR p.type = $6::text)
	AND ($7::uuid IS NULL OR p.agent_id = $7::uuid)
	AND (NOT $8::boolean OR p.featured)
ORDER BY p.published_date DESC, p.id
`

func (r *PropertyRepo) ListProperties(ctx context.Context, opts repository.ListPropertiesOpts) ([]models.Property, error) {
	var agentID *uuid.UUID
	if opts.AgentID != uuid.Nil {
		agentID = &opts.AgentID
	}

	rows, _ := r.DB.Query(ctx, listProperties,
		string(opts.Status), string(opts.SaleOrRent), opts.City, opts.MinPrice, opts.MaxPrice,
		string(opts.Type), agentID, opts.Featured,
	)
	properties, err := pgx.CollectRows(rows, rowToProperty)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}
	images, err := r.listImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range properties {
		properties[i].Images = images[properties[i].ID]
	}

	return properties, nil
}

const updateProperty = `-- name: UpdateProperty
UPDATE properties AS p
SET title = $2, description = $3, city = $4, address = $5, bedrooms = $6, bathrooms = $7, size = $8, price = $9,
	latitude = $10, longitude = $11, floor = $12, type = $13, sale_or_rent = $14, agent_id = $15
WHERE p.id = $1
RETURNING ` + propertyColumns

// Update property
// Images are replaced only if p.Images is not nil
func (r *PropertyRepo) UpdateProperty(ctx context.Context, p models.Property) (models.Property, error) {
	rows, _ := r.DB.Query(ctx, updateProperty,
		p.ID, p.Title, p.Description, p.City, p.Address, p.Bedrooms, p.Bathrooms, p.Size, p.Price,
		p.Latitude, p.Longitude, p.Floor, p.Type, p.SaleOrRent, p.AgentID,
	)
	updated, err := collectProperty(rows)
	if err != nil {
		return updated, err
	}

	if p.Images != nil {
		updated.Images, err = r.replaceImages(ctx, updated.ID, p.Images)
	} else {
		var images map[uuid.UUID][]string
		images, err = r.listImages(ctx, []uuid.UUID{updated.ID})
		updated.Images = images[updated.ID]
	}

	return updated, err
}

const setFeatured = `-- name: SetFeatured
UPDATE properties AS p
SET featured = $2
WHERE p.id = $1
RETURNING ` + propertyColumns

func (r *PropertyRepo) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (models.Property, error) {
	rows, _ := r.DB.Query(ctx, setFeatured, id, featured)
	return collectProperty(rows)
}

const setPropertyStatus = `-- name: SetPropertyStatus
UPDATE properties AS p
SET status = $2
WHERE p.id = $1
RETURNING ` + propertyColumns

func (r *PropertyRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.PropertyStatus) (models.Property, error) {
	rows, _ := r.DB.Query(ctx, setPropertyStatus, id, status)
	return collectProperty(rows)
}

const deleteProperty = `-- name: DeleteProperty
DELETE FROM properties
WHERE id = $1
`

func (r *PropertyRepo) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteProperty, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPropertyNotFound
	}

	return nil
}

const deleteImages = `-- name: DeleteImages
DELETE FROM property_images
WHERE property_id = $1
`

const insertImage = `-- name: InsertImage
INSERT INTO property_images (id, file_name, property_id)
VALUES ($1, $2, $3)
`

func (r *PropertyRepo) replaceImages(ctx context.Context, propertyID uuid.UUID, fileNames []string) ([]string, error) {
	if _, err := r.DB.Exec(ctx, deleteImages, propertyID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, name := range fileNames {
		if _, err := r.DB.Exec(ctx, insertImage, uuid.New(), name, propertyID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return fileNames, nil
}

const listImages = `-- name: ListImages
SELECT property_id, file_name
FROM property_images
WHERE property_id = ANY($1::uuid[])
ORDER BY file_name
`

// Return image file names grouped by property id
func (r *PropertyRepo) listImages(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	images := make(map[uuid.UUID][]string, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return images, nil
	}

	rows, _ := r.DB.Query(ctx, listImages, propertyIDs)

	var (
		propertyID uuid.UUID
		fileName   string
	)
	_, err := pgx.ForEachRow(rows, []any{&propertyID, &fileName}, func() error {
		images[propertyID] = append(images[propertyID], fileName)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return images, nil
}

func collectProperty(rows pgx.Rows) (models.Property, error) {
	p, err := pgx.CollectOneRow(rows, rowToProperty)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrPropertyNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return p, apperrors.ErrAgentNotFound
		}
		return p, fmt.Errorf("db error: %w", err)
	}
}

func rowToProperty(row pgx.CollectableRow) (models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.City, &p.Address, &p.Bedrooms, &p.Bathrooms, &p.Size, &p.Price,
		&p.PublishedDate, &p.Featured, &p.Latitude, &p.Longitude, &p.Floor, &p.Type, &p.Status, &p.SaleOrRent, &p.AgentID,
	)
	return p, err
}
