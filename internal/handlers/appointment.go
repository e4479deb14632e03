package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/service/appointment"
	"github.com/nkiryanov/realestate/internal/slot"
)

type appointmentService interface {
	// Book the property viewing
	// Has to return apperrors.ErrAppointmentConflict if the time overlaps another booking of the property
	Book(ctx context.Context, propertyID uuid.UUID, start time.Time, customer appointment.Customer) (models.Appointment, error)
	UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status models.AppointmentStatus) (models.Appointment, error)
	List(ctx context.Context, agentID uuid.UUID) ([]models.AppointmentView, error)
}

type AppointmentHandler struct {
	appointments appointmentService
	logger       logger.Logger
}

func NewAppointment(s appointmentService, l logger.Logger) *AppointmentHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &AppointmentHandler{appointments: s, logger: l}
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateRequest struct {
		CustomerName        string    `json:"customer_name" validate:"required,max=100"`
		CustomerPhone       string    `json:"customer_phone" validate:"required,max=30"`
		AppointmentDatetime string    `json:"appointment_datetime" validate:"required"`
		PropertyID          uuid.UUID `json:"property_id" validate:"required"`
	}
	type CreateResponse struct {
		Message     string              `json:"message"`
		Appointment AppointmentResponse `json:"appointment"`
	}

	data, err := render.BindAndValidate[CreateRequest](w, r)
	if err != nil {
		return
	}

	start, err := slot.Parse(data.AppointmentDatetime)
	if err != nil {
		render.DecodeError(w, &render.FieldError{Field: "appointment_datetime", Err: err})
		return
	}

	a, err := h.appointments.Book(r.Context(), data.PropertyID, start, appointment.Customer{
		Name:  data.CustomerName,
		Phone: data.CustomerPhone,
	})
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSONWithStatus(w, CreateResponse{
		Message:     "Your appointment is scheduled successfully! We will contact you soon",
		Appointment: newAppointmentResponse(a),
	}, http.StatusCreated)
}

// List appointments, optionally of a single agent
func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	agentID := uuid.Nil
	if value := r.URL.Query().Get("agent_id"); value != "" {
		var err error
		agentID, err = uuid.Parse(value)
		if err != nil {
			render.DecodeError(w, &render.FieldError{Field: "agent_id", Err: err})
			return
		}
	}

	views, err := h.appointments.List(r.Context(), agentID)
	if err != nil {
		renderError(w, h.logger, err)
		return
	}

	res := make([]AppointmentResponse, 0, len(views))
	for _, v := range views {
		res = append(res, newAppointmentViewResponse(v))
	}
	render.JSON(w, res)
}

func (h *AppointmentHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	type StatusRequest struct {
		Status models.AppointmentStatus `json:"status" validate:"required,appointment_status"`
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, err := render.BindAndValidate[StatusRequest](w, r)
	if err != nil {
		return
	}

	if _, err := h.appointments.UpdateStatus(r.Context(), id, data.Status); err != nil {
		renderError(w, h.logger, err)
		return
	}

	render.JSON(w, MessageResponse{Message: "Appointment status updated successfully"})
}
