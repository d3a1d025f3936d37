package appointment

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/handler"
	"github.com/physiotrack/clinic-api/internal/middleware"
	"github.com/physiotrack/clinic-api/internal/model"
	"github.com/physiotrack/clinic-api/internal/schedule"
)

// Service is the appointment operations surface the handler needs.
type Service interface {
	AvailableSlots(ctx context.Context, rawDate string) ([]string, error)
	Book(ctx context.Context, req *model.BookAppointmentRequest, patientID *uuid.UUID, origin model.BookingOrigin) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error)
	ListForPatient(ctx context.Context, email string) ([]*model.Appointment, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the public booking surface.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	appointments := rg.Group("/appointments")
	{
		appointments.GET("/slots/:date", h.AvailableSlots)
		appointments.POST("", h.Book)
	}
}

// RegisterAuthenticatedRoutes wires routes requiring a logged-in user.
func (h *Handler) RegisterAuthenticatedRoutes(rg *gin.RouterGroup) {
	rg.GET("/appointments/my-appointments", h.MyAppointments)
}

// RegisterAdminRoutes wires the admin management surface.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	appointments := rg.Group("/appointments")
	{
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id/status", h.UpdateStatus)
	}
}

// AvailableSlots returns the free slots for a calendar day.
func (h *Handler) AvailableSlots(c *gin.Context) {
	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("date"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.Respond(c, http.StatusOK, gin.H{
		"date":  c.Param("date"),
		"slots": slots,
	})
}

// Book creates a pending appointment. Logged-in users get the booking
// attached to their account; anonymous visitors book as guests.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	var patientID *uuid.UUID
	origin := model.BookingOriginGuest
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		patientID = &claims.UserID
		origin = model.BookingOriginUser
		if claims.Role == string(model.UserRoleAdmin) {
			origin = model.BookingOriginAdmin
		}
	}

	appointment, err := h.service.Book(c.Request.Context(), &req, patientID, origin)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.Respond(c, http.StatusCreated, appointment)
}

// MyAppointments lists the authenticated user's bookings, matched by email so
// guest bookings made with the same address show up too.
func (h *Handler) MyAppointments(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "authentication required",
		})
		return
	}

	appointments, err := h.service.ListForPatient(c.Request.Context(), claims.Email)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.Respond(c, http.StatusOK, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.Respond(c, http.StatusOK, appointment)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if id := c.Query("service_id"); id != "" {
		serviceID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid service ID"})
			return
		}
		filters.ServiceID = serviceID
	}
	if date := c.Query("start_date"); date != "" {
		start, err := time.Parse(schedule.DateFormat, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid start date"})
			return
		}
		filters.StartDate = start
	}
	if date := c.Query("end_date"); date != "" {
		end, err := time.Parse(schedule.DateFormat, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid end date"})
			return
		}
		filters.EndDate = end
	}
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filters.Normalize()

	appointments, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondList(c, appointments, total, filters.Page, filters.PageSize)
}

// UpdateStatus transitions an appointment's lifecycle state.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	appointment, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.Respond(c, http.StatusOK, appointment)
}
