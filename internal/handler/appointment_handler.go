package handler

import (
	"net/http"
	"strconv"
	"time"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	service service.AppointmentService
}

func NewAppointmentHandler(service service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

type appointmentRequest struct {
	ScheduledAt string `json:"scheduled_at" binding:"required"`
}

type appointmentResponse struct {
	ID            uint   `json:"id"`
	ReferenceCode string `json:"reference_code"`
	ScheduledAt   string `json:"scheduled_at"`
	Status        string `json:"status"`
}

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:            a.ID,
		ReferenceCode: a.ReferenceCode,
		ScheduledAt:   a.ScheduledAt.Format(time.RFC3339),
		Status:        string(a.Status),
	}
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at is required"})
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be an ISO-8601 timestamp"})
		return
	}

	appointment, err := h.service.Create(actorFrom(c), at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentResponse(appointment))
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}
	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at is required"})
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be an ISO-8601 timestamp"})
		return
	}

	appointment, err := h.service.Reschedule(actorFrom(c), id, at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}
	appointment, err := h.service.Cancel(actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}
	appointment, err := h.service.Get(actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

func (h *AppointmentHandler) List(c *gin.Context) {
	appointments, err := h.service.ListByUser(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]appointmentResponse, 0, len(appointments))
	for i := range appointments {
		out = append(out, toAppointmentResponse(&appointments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"appointments": out})
}

func (h *AppointmentHandler) ListByStatus(c *gin.Context) {
	status := domain.AppointmentStatus(c.Query("status"))
	appointments, err := h.service.ListByStatus(actorFrom(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]appointmentResponse, 0, len(appointments))
	for i := range appointments {
		out = append(out, toAppointmentResponse(&appointments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"appointments": out})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AppointmentHandler) Transition(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	appointment, err := h.service.Transition(actorFrom(c), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
