package domain

import (
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusMissed    AppointmentStatus = "missed"
	StatusFinished  AppointmentStatus = "finished"
	StatusCompleted AppointmentStatus = "completed"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

type Appointment struct {
	gorm.Model
	UserID        uint              `gorm:"index;not null"`
	ScheduledAt   time.Time         `gorm:"index;not null"`
	Status        AppointmentStatus `gorm:"index;not null;default:pending"`
	ReferenceCode string            `gorm:"uniqueIndex;size:16"`
}

type InterpretationState string

const (
	InterpretationEmpty      InterpretationState = ""
	InterpretationProcessing InterpretationState = "processing"
	InterpretationFailed     InterpretationState = "failed"
	InterpretationFinalized  InterpretationState = "finalized"
)

type MedicalRecord struct {
	gorm.Model
	UserID              uint `gorm:"index;not null"`
	ScanPath            string
	ScanContentType     string
	AppointmentID       *uint
	Appointment         *Appointment
	Diagnosis           string
	Confidence          float64
	InterpretationState InterpretationState `gorm:"index"`
	TaskID              string
}

// UserQuota is the per-user AI tries ledger row.
type UserQuota struct {
	UserID    uint `gorm:"primaryKey"`
	AiTries   int  `gorm:"not null;default:0"`
	Premium   bool `gorm:"not null;default:false"`
	UpdatedAt time.Time
}

type AIModelStatus string

const (
	ModelDeployed AIModelStatus = "deployed"
	ModelVip      AIModelStatus = "vip"
	ModelArchived AIModelStatus = "archived"
)

type AIModel struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Version     string
	StoragePath string        `gorm:"not null"`
	Status      AIModelStatus `gorm:"index;not null;default:deployed"`
	// Labels is a JSON array of class names, index-aligned with the
	// scorer's output vector. For binary models Labels[1] is the
	// positive class.
	Labels string
}

type NotificationEvent struct {
	RecipientUserID uint   `json:"recipient_user_id"`
	Message         string `json:"message"`
	Type            string `json:"type"`
}

const (
	EventAppointmentCreated   = "appointment_created"
	EventAppointmentConfirmed = "appointment_confirmed"
	EventAppointmentCancelled = "appointment_cancelled"
	EventAppointmentMissed    = "appointment_missed"
	EventAppointmentReminder  = "appointment_reminder"
	EventRecordUploaded       = "record_uploaded"
	EventInferenceCompleted   = "inference_completed"
	EventQuotaGranted         = "quota_granted"
	EventQuotaRevoked         = "quota_revoked"
)
