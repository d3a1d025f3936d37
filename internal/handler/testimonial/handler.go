package testimonial

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/handler"
	"github.com/physiotrack/clinic-api/internal/model"
)

type Service interface {
	Submit(ctx context.Context, req *model.CreateTestimonialRequest) (*model.Testimonial, error)
	Moderate(ctx context.Context, id uuid.UUID, req *model.ModerateTestimonialRequest) (*model.Testimonial, error)
	List(ctx context.Context) ([]*model.Testimonial, error)
	ListApproved(ctx context.Context) ([]*model.Testimonial, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	testimonials := rg.Group("/testimonials")
	{
		testimonials.GET("", h.ListApproved)
		testimonials.POST("", h.Submit)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	testimonials := rg.Group("/testimonials")
	{
		testimonials.GET("", h.List)
		testimonials.PUT("/:id", h.Moderate)
	}
}

func (h *Handler) ListApproved(c *gin.Context) {
	testimonials, err := h.service.ListApproved(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, testimonials)
}

func (h *Handler) List(c *gin.Context) {
	testimonials, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, testimonials)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.CreateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	testimonial, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, testimonial)
}

func (h *Handler) Moderate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid testimonial ID"})
		return
	}

	var req model.ModerateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	testimonial, err := h.service.Moderate(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, testimonial)
}
