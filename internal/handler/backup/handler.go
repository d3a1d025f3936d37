package backup

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physiotrack/clinic-api/internal/handler"
	"github.com/physiotrack/clinic-api/internal/middleware"
	"github.com/physiotrack/clinic-api/internal/model"
)

type Service interface {
	Create(ctx context.Context, req *model.CreateBackupRequest, backupType model.BackupType, createdBy string) (*model.Backup, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Backup, error)
	List(ctx context.Context) ([]*model.Backup, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, req *model.RestoreBackupRequest) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes wires the backup engine. Everything here is
// admin-only; restore in particular replaces live data.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	backups := rg.Group("/backups")
	{
		backups.POST("", h.Create)
		backups.GET("", h.List)
		backups.GET("/:id", h.Get)
		backups.GET("/:id/download", h.Download)
		backups.DELETE("/:id", h.Delete)
		backups.POST("/restore", h.Restore)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	createdBy := "admin"
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		createdBy = claims.Email
	}

	backup, err := h.service.Create(c.Request.Context(), &req, model.BackupTypeManual, createdBy)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	// The blob can be large; creation returns metadata only.
	backup.Data = nil
	handler.Respond(c, http.StatusCreated, backup)
}

func (h *Handler) List(c *gin.Context) {
	backups, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, backups)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid backup ID"})
		return
	}

	backup, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	backup.Data = nil
	handler.Respond(c, http.StatusOK, backup)
}

// Download streams the raw archive for offline storage.
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid backup ID"})
		return
	}

	backup, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+backup.ID.String()+".json")
	c.Data(http.StatusOK, "application/json", backup.Data)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid backup ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) Restore(c *gin.Context) {
	var req model.RestoreBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBadRequest(c, err)
		return
	}

	if err := h.service.Restore(c.Request.Context(), &req); err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, gin.H{"restored": true})
}
