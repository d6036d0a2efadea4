package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/service"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	service service.RecordService
	scanDir string
}

func NewRecordHandler(service service.RecordService, scanDir string) *RecordHandler {
	return &RecordHandler{
		service: service,
		scanDir: scanDir,
	}
}

type recordResponse struct {
	ID             uint    `json:"id"`
	UserID         uint    `json:"user_id"`
	AppointmentID  *uint   `json:"appointment_id,omitempty"`
	Diagnosis      string  `json:"diagnosis,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Interpretation string  `json:"interpretation_state"`
	CreatedAt      string  `json:"created_at"`
}

func toRecordResponse(r *domain.MedicalRecord) recordResponse {
	return recordResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		AppointmentID:  r.AppointmentID,
		Diagnosis:      r.Diagnosis,
		Confidence:     r.Confidence,
		Interpretation: string(r.InterpretationState),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

func (h *RecordHandler) readScan(c *gin.Context) (string, string, bool) {
	fileHeader, err := c.FormFile("scan")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan file is required"})
		return "", "", false
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read scan file"})
		return "", "", false
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read scan file"})
		return "", "", false
	}
	path, err := saveScan(h.scanDir, image, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store scan"})
		return "", "", false
	}
	return path, fileHeader.Header.Get("Content-Type"), true
}

// SelfUpload stores a scan for the calling patient.
func (h *RecordHandler) SelfUpload(c *gin.Context) {
	path, contentType, ok := h.readScan(c)
	if !ok {
		return
	}
	record, err := h.service.SelfUpload(actorFrom(c), path, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordResponse(record))
}

// StaffUpload stores a scan on behalf of a patient whose latest
// appointment is finished.
func (h *RecordHandler) StaffUpload(c *gin.Context) {
	targetUserID, err := strconv.ParseUint(c.PostForm("user_id"), 10, 64)
	if err != nil || targetUserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	path, contentType, ok := h.readScan(c)
	if !ok {
		return
	}
	record, err := h.service.StaffUpload(actorFrom(c), uint(targetUserID), path, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordResponse(record))
}

func (h *RecordHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	record, err := h.service.Get(actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(record))
}

func (h *RecordHandler) ListOwn(c *gin.Context) {
	records, err := h.service.ListOwn(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": toRecordResponses(records)})
}

func (h *RecordHandler) ListAll(c *gin.Context) {
	records, err := h.service.ListAll(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": toRecordResponses(records)})
}

func (h *RecordHandler) ListForUser(c *gin.Context) {
	targetUserID, err := pathID(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	records, err := h.service.ListForUser(actorFrom(c), targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": toRecordResponses(records)})
}

func toRecordResponses(records []domain.MedicalRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out
}
