package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"clinic-ai-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InferenceHandler struct {
	service service.InferenceService
	models  service.ModelService
	scanDir string
}

func NewInferenceHandler(service service.InferenceService, models service.ModelService, scanDir string) *InferenceHandler {
	return &InferenceHandler{
		service: service,
		models:  models,
		scanDir: scanDir,
	}
}

// Submit accepts a multipart scan upload plus a model id, dispatches
// the classification and waits up to the configured bound for the
// result.
func (h *InferenceHandler) Submit(c *gin.Context) {
	modelID, err := strconv.ParseUint(c.PostForm("model_id"), 10, 64)
	if err != nil || modelID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_id is required"})
		return
	}

	fileHeader, err := c.FormFile("scan")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan file is required"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read scan file"})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read scan file"})
		return
	}

	scanPath, err := saveScan(h.scanDir, image, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store scan"})
		return
	}

	record, err := h.service.Submit(actorFrom(c), uint(modelID), scanPath, image, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record_id":  record.ID,
		"diagnosis":  record.Diagnosis,
		"confidence": record.Confidence,
	})
}

// Models lists the inference targets visible to the caller.
func (h *InferenceHandler) Models(c *gin.Context) {
	models, err := h.models.EligibleModels(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	type modelResponse struct {
		ID      uint   `json:"id"`
		Name    string `json:"name"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{ID: m.ID, Name: m.Name, Version: m.Version, Status: string(m.Status)})
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

func saveScan(dir string, image []byte, original string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + filepath.Ext(original)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
