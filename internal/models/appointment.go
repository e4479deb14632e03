package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentScheduled      AppointmentStatus = "scheduled"
	AppointmentPending        AppointmentStatus = "pending"
	AppointmentCompleted      AppointmentStatus = "completed"
	AppointmentCancelled      AppointmentStatus = "cancelled"
	AppointmentNoShowAgent    AppointmentStatus = "no_show_agent"
	AppointmentNoShowCustomer AppointmentStatus = "no_show_customer"
)

// Valid reports whether the status is one of the known statuses
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled,
		AppointmentPending,
		AppointmentCompleted,
		AppointmentCancelled,
		AppointmentNoShowAgent,
		AppointmentNoShowCustomer:
		return true
	default:
		return false
	}
}

// Appointment of a customer to view a property
// StartsAt holds wall clock time of the storage zone (UTC+3), its location is always UTC and carries no meaning
type Appointment struct {
	ID            uuid.UUID
	CustomerName  string
	CustomerPhone string
	StartsAt      time.Time
	Status        AppointmentStatus
	PropertyID    uuid.UUID
	CreatedAt     time.Time
}

// Appointment joined with its property and the property agent
type AppointmentView struct {
	Appointment
	PropertyTitle string
	AgentID       uuid.UUID
	AgentName     string
}
