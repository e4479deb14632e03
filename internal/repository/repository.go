package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/realestate/internal/models"
)

// Storage gives access to all repositories sharing one connection (or one transaction)
type Storage interface {
	User() UserRepo
	Property() PropertyRepo
	Appointment() AppointmentRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username, email or phone is taken has to return
	// apperrors.ErrUsernameTaken, apperrors.ErrEmailTaken or apperrors.ErrPhoneTaken
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// List users ordered by creation time
	// If role is not empty only users with that role returned
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)

	// Overwrite every user field except id, created_at
	// Same uniqueness rules as for CreateUser apply
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	// Delete user
	// If the user is an agent of any property must return apperrors.ErrUserOwnsProperties
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// Filters for listing properties; zero value fields are ignored
type ListPropertiesOpts struct {
	Status     models.PropertyStatus
	SaleOrRent models.SaleOrRent
	City       string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Type       models.PropertyType
	AgentID    uuid.UUID
	Featured   bool // If true only featured properties returned
}

// Property repository interface
type PropertyRepo interface {
	// Create property with its images
	// If agent does not exist must return apperrors.ErrAgentNotFound
	CreateProperty(ctx context.Context, p models.Property) (models.Property, error)

	// Get property with all images and its agent
	// If property not found must return apperrors.ErrPropertyNotFound
	GetProperty(ctx context.Context, propertyID uuid.UUID) (models.PropertyDetails, error)

	ListProperties(ctx context.Context, opts ListPropertiesOpts) ([]models.Property, error)

	// Overwrite property fields except id, published_date, featured and status
	// If images is not nil they replace existed ones
	UpdateProperty(ctx context.Context, p models.Property) (models.Property, error)

	SetFeatured(ctx context.Context, propertyID uuid.UUID, featured bool) (models.Property, error)
	SetStatus(ctx context.Context, propertyID uuid.UUID, status models.PropertyStatus) (models.Property, error)

	// Delete property, its images and appointments
	DeleteProperty(ctx context.Context, propertyID uuid.UUID) error
}

// Appointment repository interface
type AppointmentRepo interface {
	// Lock the property appointments till the end of current transaction
	// Concurrent callers with the same property wait for the lock
	LockProperty(ctx context.Context, propertyID uuid.UUID) error

	// Whether any appointment of the property starts in [from, to)
	HasStartsBetween(ctx context.Context, propertyID uuid.UUID, from time.Time, to time.Time) (bool, error)

	// Create appointment
	// If property does not exist must return apperrors.ErrPropertyNotFound
	CreateAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error)

	// Set appointment status
	// If appointment not found must return apperrors.ErrAppointmentNotFound
	SetStatus(ctx context.Context, appointmentID uuid.UUID, status models.AppointmentStatus) (models.Appointment, error)

	// List appointments joined with property and agent
	// If agentID is not uuid.Nil only appointments of the agent properties returned
	ListAppointments(ctx context.Context, agentID uuid.UUID) ([]models.AppointmentView, error)
}
