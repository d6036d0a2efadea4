package handler

import (
	"net/http"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler groups the staff-only surfaces: quota grant/revoke and
// the AI model registry.
type AdminHandler struct {
	quota  service.QuotaService
	models service.ModelService
}

func NewAdminHandler(quota service.QuotaService, models service.ModelService) *AdminHandler {
	return &AdminHandler{
		quota:  quota,
		models: models,
	}
}

func (h *AdminHandler) GrantQuota(c *gin.Context) {
	targetUserID, err := pathID(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	quota, err := h.quota.Grant(actorFrom(c), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": quota.UserID, "ai_tries": quota.AiTries, "premium": quota.Premium})
}

func (h *AdminHandler) RevokeQuota(c *gin.Context) {
	targetUserID, err := pathID(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	quota, err := h.quota.Revoke(actorFrom(c), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": quota.UserID, "ai_tries": quota.AiTries, "premium": quota.Premium})
}

func (h *AdminHandler) GetQuota(c *gin.Context) {
	targetUserID, err := pathID(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	quota, err := h.quota.Get(actorFrom(c), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": quota.UserID, "ai_tries": quota.AiTries, "premium": quota.Premium})
}

type registerModelRequest struct {
	Name        string   `json:"name" binding:"required"`
	Version     string   `json:"version"`
	StoragePath string   `json:"storage_path" binding:"required"`
	Labels      []string `json:"labels"`
}

func (h *AdminHandler) RegisterModel(c *gin.Context) {
	var req registerModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and storage_path are required"})
		return
	}
	model, err := h.models.Register(actorFrom(c), req.Name, req.Version, req.StoragePath, req.Labels)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": model.ID, "name": model.Name, "status": model.Status})
}

type modelStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AdminHandler) UpdateModelStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model id"})
		return
	}
	var req modelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if err := h.models.UpdateStatus(actorFrom(c), id, domain.AIModelStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

func (h *AdminHandler) ListModels(c *gin.Context) {
	models, err := h.models.List(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
