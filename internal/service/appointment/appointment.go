package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/slot"
)

// Customer who asks to view the property
type Customer struct {
	Name  string
	Phone string
}

type AppointmentService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *AppointmentService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AppointmentService{
		storage: storage,
		logger:  l,
	}
}

// Book the property for the customer if the time is free
//
// start has to be a storage time (see slot.Parse, slot.Normalize).
// Fails with apperrors.ErrAppointmentConflict if any appointment of the property starts within slot.Window(start).
// The property is locked while checking and inserting, so concurrent bookings can't both pass the check.
func (s *AppointmentService) Book(ctx context.Context, propertyID uuid.UUID, start time.Time, customer Customer) (models.Appointment, error) {
	var created models.Appointment
	from, to := slot.Window(start)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		repo := storage.Appointment()

		if err := repo.LockProperty(ctx, propertyID); err != nil {
			return err
		}

		busy, err := repo.HasStartsBetween(ctx, propertyID, from, to)
		if err != nil {
			return err
		}
		if busy {
			return apperrors.ErrAppointmentConflict
		}

		created, err = repo.CreateAppointment(ctx, models.Appointment{
			CustomerName:  customer.Name,
			CustomerPhone: customer.Phone,
			StartsAt:      start,
			Status:        models.AppointmentScheduled,
			PropertyID:    propertyID,
		})
		return err
	})

	switch {
	case err == nil:
		s.logger.Info("Appointment booked", "appointment_id", created.ID, "property_id", propertyID, "starts_at", start)
		return created, nil
	case errors.Is(err, apperrors.ErrAppointmentConflict):
		s.logger.Debug("Appointment rejected, time is taken", "property_id", propertyID, "starts_at", start)
		return models.Appointment{}, err
	default:
		return models.Appointment{}, err
	}
}

// Set any status, no transition rules are applied
func (s *AppointmentService) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status models.AppointmentStatus) (models.Appointment, error) {
	if !status.Valid() {
		return models.Appointment{}, apperrors.ErrInvalidAppointmentStatus
	}

	a, err := s.storage.Appointment().SetStatus(ctx, appointmentID, status)
	if err != nil {
		return a, err
	}

	s.logger.Info("Appointment status updated", "appointment_id", a.ID, "status", a.Status)
	return a, nil
}

// List all appointments, or only appointments of the agent properties if agentID is not uuid.Nil
func (s *AppointmentService) List(ctx context.Context, agentID uuid.UUID) ([]models.AppointmentView, error) {
	return s.storage.Appointment().ListAppointments(ctx, agentID)
}
