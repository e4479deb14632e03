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
)

type AppointmentRepo struct {
	DB DBTX
}

const appointmentColumns = `a.id, a.customer_name, a.customer_phone, a.appointment_datetime, a.appointment_status, a.property_id, a.created_at`

const lockPropertyAppointments = `-- name: LockPropertyAppointments
SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))
`

// Take transaction level advisory lock keyed by property id
// Outside of transaction the lock is released right after the statement, so call it in transaction only
func (r *AppointmentRepo) LockProperty(ctx context.Context, propertyID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, lockPropertyAppointments, propertyID.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const hasStartsBetween = `-- name: HasStartsBetween
SELECT EXISTS (
	SELECT 1 FROM property_appointments
	WHERE property_id = $1
		AND appointment_datetime >= $2
		AND appointment_datetime < $3
)
`

func (r *AppointmentRepo) HasStartsBetween(ctx context.Context, propertyID uuid.UUID, from time.Time, to time.Time) (bool, error) {
	rows, _ := r.DB.Query(ctx, hasStartsBetween, propertyID, from, to)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const createAppointment = `-- name: CreateAppointment
INSERT INTO property_appointments AS a (id, customer_name, customer_phone, appointment_datetime, appointment_status, property_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + appointmentColumns

func (r *AppointmentRepo) CreateAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AppointmentScheduled
	}

	rows, _ := r.DB.Query(ctx, createAppointment, a.ID, a.CustomerName, a.CustomerPhone, a.StartsAt, a.Status, a.PropertyID)
	created, err := pgx.CollectOneRow(rows, rowToAppointment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrPropertyNotFound
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const setAppointmentStatus = `-- name: SetAppointmentStatus
UPDATE property_appointments AS a
SET appointment_status = $2
WHERE a.id = $1
RETURNING ` + appointmentColumns

func (r *AppointmentRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) (models.Appointment, error) {
	rows, _ := r.DB.Query(ctx, setAppointmentStatus, id, status)
	a, err := pgx.CollectOneRow(rows, rowToAppointment)

	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, pgx.ErrNoRows):
		return a, apperrors.ErrAppointmentNotFound
	default:
		return a, fmt.Errorf("db error: %w", err)
	}
}

const listAppointments = `-- name: ListAppointments
SELECT ` + appointmentColumns + `, p.title, u.id, u.name
FROM property_appointments a
JOIN properties p ON p.id = a.property_id
JOIN users u ON u.id = p.agent_id
WHERE $1::uuid IS NULL OR u.id = $1::uuid
ORDER BY a.appointment_datetime, a.id
`

func (r *AppointmentRepo) ListAppointments(ctx context.Context, agentID uuid.UUID) ([]models.AppointmentView, error) {
	var agent *uuid.UUID
	if agentID != uuid.Nil {
		agent = &agentID
	}

	rows, _ := r.DB.Query(ctx, listAppointments, agent)
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AppointmentView, error) {
		var v models.AppointmentView
		a := &v.Appointment
		err := row.Scan(
			&a.ID, &a.CustomerName, &a.CustomerPhone, &a.StartsAt, &a.Status, &a.PropertyID, &a.CreatedAt,
			&v.PropertyTitle, &v.AgentID, &v.AgentName,
		)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return views, nil
}

func rowToAppointment(row pgx.CollectableRow) (models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(&a.ID, &a.CustomerName, &a.CustomerPhone, &a.StartsAt, &a.Status, &a.PropertyID, &a.CreatedAt)
	return a, err
}
