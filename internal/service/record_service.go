package service

import (
	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"

	"github.com/sirupsen/logrus"
)

type RecordService interface {
	SelfUpload(actor domain.Actor, scanPath, contentType string) (*domain.MedicalRecord, error)
	StaffUpload(actor domain.Actor, targetUserID uint, scanPath, contentType string) (*domain.MedicalRecord, error)
	Get(actor domain.Actor, id uint) (*domain.MedicalRecord, error)
	ListOwn(actor domain.Actor) ([]domain.MedicalRecord, error)
	ListAll(actor domain.Actor) ([]domain.MedicalRecord, error)
	ListForUser(actor domain.Actor, targetUserID uint) ([]domain.MedicalRecord, error)
}

type recordService struct {
	repo     repository.MedicalRecordRepository
	notifier Notifier
	logger   *logrus.Logger
}

func NewRecordService(repo repository.MedicalRecordRepository, notifier Notifier, logger *logrus.Logger) RecordService {
	return &recordService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// SelfUpload stores a scan for the calling patient. No appointment
// precondition applies on this path.
func (s *recordService) SelfUpload(actor domain.Actor, scanPath, contentType string) (*domain.MedicalRecord, error) {
	if !domain.Can(actor, domain.CapUploadRecord) {
		return nil, domain.ErrForbidden
	}
	if !acceptedScanTypes[contentType] {
		return nil, domain.NewValidationError("invalid image format, only JPEG and PNG are allowed")
	}
	record := &domain.MedicalRecord{
		UserID:          actor.UserID,
		ScanPath:        scanPath,
		ScanContentType: contentType,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function": "SelfUpload",
		"RecordId": record.ID,
		"UserId":   actor.UserID,
	}).Info("Medical record uploaded")
	return record, nil
}

// StaffUpload requires the target user's most recent appointment to be
// finished; the repository advances it to completed and links it in the
// same transaction.
func (s *recordService) StaffUpload(actor domain.Actor, targetUserID uint, scanPath, contentType string) (*domain.MedicalRecord, error) {
	if !domain.Can(actor, domain.CapUploadRecordForPatient) {
		return nil, domain.ErrForbidden
	}
	if !acceptedScanTypes[contentType] {
		return nil, domain.NewValidationError("invalid image format, only JPEG and PNG are allowed")
	}
	record := &domain.MedicalRecord{
		UserID:          targetUserID,
		ScanPath:        scanPath,
		ScanContentType: contentType,
	}
	if err := s.repo.CreateForFinishedAppointment(record); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function":      "StaffUpload",
		"RecordId":      record.ID,
		"UserId":        targetUserID,
		"AppointmentId": record.AppointmentID,
	}).Info("Medical record uploaded for patient")
	err := s.notifier.Notify(domain.NotificationEvent{
		RecipientUserID: targetUserID,
		Message:         "A new medical record has been added to your file",
		Type:            domain.EventRecordUploaded,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to emit record event")
	}
	return record, nil
}

func (s *recordService) Get(actor domain.Actor, id uint) (*domain.MedicalRecord, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record.UserID != actor.UserID && !domain.Can(actor, domain.CapUploadRecordForPatient) {
		return nil, domain.ErrForbidden
	}
	return record, nil
}

func (s *recordService) ListOwn(actor domain.Actor) ([]domain.MedicalRecord, error) {
	return s.repo.ListByUser(actor.UserID)
}

func (s *recordService) ListAll(actor domain.Actor) ([]domain.MedicalRecord, error) {
	if !domain.Can(actor, domain.CapUploadRecordForPatient) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListAll()
}

func (s *recordService) ListForUser(actor domain.Actor, targetUserID uint) ([]domain.MedicalRecord, error) {
	if !domain.Can(actor, domain.CapUploadRecordForPatient) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListByUser(targetUserID)
}
