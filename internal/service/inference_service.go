package service

import (
	"encoding/json"
	"fmt"

	"clinic-ai-service/internal/dispatcher"
	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var acceptedScanTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type InferenceService interface {
	Submit(actor domain.Actor, modelID uint, scanPath string, image []byte, contentType string) (*domain.MedicalRecord, error)
}

type inferenceService struct {
	records    repository.MedicalRecordRepository
	models     repository.AIModelRepository
	quota      repository.QuotaRepository
	dispatcher *dispatcher.Dispatcher
	notifier   Notifier
	rules      domain.Rules
	logger     *logrus.Logger
}

func NewInferenceService(
	records repository.MedicalRecordRepository,
	models repository.AIModelRepository,
	quota repository.QuotaRepository,
	disp *dispatcher.Dispatcher,
	notifier Notifier,
	rules domain.Rules,
	logger *logrus.Logger,
) InferenceService {
	return &inferenceService{
		records:    records,
		models:     models,
		quota:      quota,
		dispatcher: disp,
		notifier:   notifier,
		rules:      rules,
		logger:     logger,
	}
}

// Submit runs the full inference path: preconditions, processing-
// sentinel write, out-of-band dispatch, bounded wait. On success the
// worker has already finalized the record, debited one try and emitted
// the event before the caller is released. On timeout or a remote
// failure nothing is debited; a timed-out task keeps running and may
// still finalize and debit later.
func (s *inferenceService) Submit(actor domain.Actor, modelID uint, scanPath string, image []byte, contentType string) (*domain.MedicalRecord, error) {
	if !domain.Can(actor, domain.CapSubmitInference) {
		return nil, domain.ErrForbidden
	}
	if !acceptedScanTypes[contentType] {
		return nil, domain.NewValidationError("invalid image format, only JPEG and PNG are allowed")
	}

	quota, err := s.quota.Get(actor.UserID)
	if err != nil {
		return nil, err
	}
	if quota.AiTries <= 0 {
		return nil, domain.ErrQuotaEmpty
	}

	model, err := s.models.GetByID(modelID)
	if err != nil {
		return nil, err
	}
	if !modelEligible(model, actor) {
		return nil, domain.NewValidationError("model %d is not available for inference", modelID)
	}

	// The processing sentinel is persisted before dispatch so a crash
	// mid-flight leaves an inspectable record instead of a silent gap.
	record := &domain.MedicalRecord{
		UserID:              actor.UserID,
		ScanPath:            scanPath,
		ScanContentType:     contentType,
		InterpretationState: domain.InterpretationProcessing,
	}
	if err := s.records.Create(record); err != nil {
		return nil, err
	}

	taskID := uuid.New().String()
	task := dispatcher.Task{
		ID:          taskID,
		ModelPath:   model.StoragePath,
		Labels:      parseLabels(model.Labels),
		Image:       image,
		ContentType: contentType,
		OnSuccess:   s.completion(record.ID, actor.UserID),
		OnFailure: func(err error) {
			if markErr := s.records.MarkFailed(record.ID); markErr != nil {
				s.logger.WithError(markErr).Error("Failed to mark record as failed")
			}
		},
	}

	handle, err := s.dispatcher.Dispatch(task)
	if err != nil {
		if markErr := s.records.MarkFailed(record.ID); markErr != nil {
			s.logger.WithError(markErr).Error("Failed to mark record as failed")
		}
		return nil, err
	}
	if err := s.records.SetTask(record.ID, taskID); err != nil {
		s.logger.WithError(err).Error("Failed to attach task id to record")
	}

	s.logger.WithFields(logrus.Fields{
		"Function": "Submit",
		"RecordId": record.ID,
		"TaskId":   taskID,
		"ModelId":  modelID,
		"UserId":   actor.UserID,
	}).Info("Inference task dispatched")

	if _, err := handle.Await(s.rules.AwaitTimeout); err != nil {
		return nil, err
	}
	return s.records.GetByID(record.ID)
}

// completion is the worker-side write-back, in the required order:
// finalize the interpretation, then debit exactly one try, then emit
// the event. The debit is paired with the finalization, not with the
// caller's wait, so a late completion after an abandoned wait still
// debits exactly once.
func (s *inferenceService) completion(recordID, userID uint) func(dispatcher.Result) error {
	return func(result dispatcher.Result) error {
		if err := s.records.Finalize(recordID, result.Label, result.Confidence); err != nil {
			return err
		}
		if _, err := s.quota.Consume(userID); err != nil {
			// Finalized but not debited: the precondition check raced
			// with another debit. Surfaced loudly, never retried.
			s.logger.WithFields(logrus.Fields{
				"RecordId": recordID,
				"UserId":   userID,
				"Error":    err,
			}).Error("Quota debit failed after finalization")
			return err
		}
		err := s.notifier.Notify(domain.NotificationEvent{
			RecipientUserID: userID,
			Message:         fmt.Sprintf("Your scan was classified as %s (%.1f%% confidence)", result.Label, result.Confidence),
			Type:            domain.EventInferenceCompleted,
		})
		if err != nil {
			s.logger.WithError(err).Error("Failed to emit inference event")
		}
		return nil
	}
}

// modelEligible implements the union visibility rule: deployed models
// for everyone, vip models additionally for premium callers.
func modelEligible(model *domain.AIModel, actor domain.Actor) bool {
	switch model.Status {
	case domain.ModelDeployed:
		return true
	case domain.ModelVip:
		return domain.Can(actor, domain.CapUseVipModels)
	}
	return false
}

func parseLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil
	}
	return labels
}
