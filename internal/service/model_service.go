package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	eligibleModelsKeyRegular = "models:eligible:regular"
	eligibleModelsKeyPremium = "models:eligible:premium"
	eligibleModelsTTL        = 30 * time.Second
)

type ModelService interface {
	Register(actor domain.Actor, name, version, storagePath string, labels []string) (*domain.AIModel, error)
	UpdateStatus(actor domain.Actor, id uint, status domain.AIModelStatus) error
	List(actor domain.Actor) ([]domain.AIModel, error)
	EligibleModels(actor domain.Actor) ([]domain.AIModel, error)
}

type modelService struct {
	repo   repository.AIModelRepository
	cache  *redis.Client
	logger *logrus.Logger
}

func NewModelService(repo repository.AIModelRepository, cache *redis.Client, logger *logrus.Logger) ModelService {
	return &modelService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *modelService) Register(actor domain.Actor, name, version, storagePath string, labels []string) (*domain.AIModel, error) {
	if !domain.Can(actor, domain.CapManageModels) {
		return nil, domain.ErrForbidden
	}
	if name == "" || storagePath == "" {
		return nil, domain.NewValidationError("model name and storage path are required")
	}
	if !strings.HasSuffix(storagePath, ".h5") && !strings.HasSuffix(storagePath, ".keras") {
		return nil, domain.NewValidationError("invalid model file, only .h5 and .keras are allowed")
	}
	labelsJSON := ""
	if len(labels) > 0 {
		raw, err := json.Marshal(labels)
		if err != nil {
			return nil, err
		}
		labelsJSON = string(raw)
	}
	model := &domain.AIModel{
		Name:        name,
		Version:     version,
		StoragePath: storagePath,
		Status:      domain.ModelDeployed,
		Labels:      labelsJSON,
	}
	if err := s.repo.Create(model); err != nil {
		return nil, err
	}
	s.invalidateCache()
	s.logger.WithFields(logrus.Fields{
		"Function": "Register",
		"ModelId":  model.ID,
		"Name":     name,
	}).Info("AI model registered")
	return model, nil
}

func (s *modelService) UpdateStatus(actor domain.Actor, id uint, status domain.AIModelStatus) error {
	if !domain.Can(actor, domain.CapManageModels) {
		return domain.ErrForbidden
	}
	switch status {
	case domain.ModelDeployed, domain.ModelVip, domain.ModelArchived:
	default:
		return domain.NewValidationError("unknown model status %s", status)
	}
	if err := s.repo.UpdateStatus(id, status); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

func (s *modelService) List(actor domain.Actor) ([]domain.AIModel, error) {
	if !domain.Can(actor, domain.CapManageModels) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List()
}

// EligibleModels lists the inference targets visible to the caller:
// deployed models, plus vip models for premium callers. The listing is
// hit on every inference submit, so it is cached briefly in redis.
func (s *modelService) EligibleModels(actor domain.Actor) ([]domain.AIModel, error) {
	statuses := []domain.AIModelStatus{domain.ModelDeployed}
	key := eligibleModelsKeyRegular
	if domain.Can(actor, domain.CapUseVipModels) {
		statuses = append(statuses, domain.ModelVip)
		key = eligibleModelsKeyPremium
	}

	if s.cache != nil {
		cached, err := s.cache.Get(context.Background(), key).Result()
		if err == nil {
			var models []domain.AIModel
			if err := json.Unmarshal([]byte(cached), &models); err == nil {
				return models, nil
			}
		}
	}

	models, err := s.repo.ListByStatuses(statuses)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(models); err == nil {
			if err := s.cache.Set(context.Background(), key, raw, eligibleModelsTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("Failed to cache eligible models")
			}
		}
	}
	return models, nil
}

func (s *modelService) invalidateCache() {
	if s.cache == nil {
		return
	}
	err := s.cache.Del(context.Background(), eligibleModelsKeyRegular, eligibleModelsKeyPremium).Err()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate model cache")
	}
}
