package service

import (
	"fmt"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"

	"github.com/sirupsen/logrus"
)

// QuotaService is the staff-facing quota-grant interface; the external
// coupon/premium collaborator calls Grant through it. Amounts come from
// configuration, never from the caller.
type QuotaService interface {
	Grant(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error)
	Revoke(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error)
	Get(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error)
}

type quotaService struct {
	repo     repository.QuotaRepository
	notifier Notifier
	rules    domain.Rules
	logger   *logrus.Logger
}

func NewQuotaService(repo repository.QuotaRepository, notifier Notifier, rules domain.Rules, logger *logrus.Logger) QuotaService {
	return &quotaService{
		repo:     repo,
		notifier: notifier,
		rules:    rules,
		logger:   logger,
	}
}

func (s *quotaService) Grant(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error) {
	if !domain.Can(actor, domain.CapManageQuota) {
		return nil, domain.ErrForbidden
	}
	quota, err := s.repo.Grant(targetUserID, s.rules.QuotaGrantAmount)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function": "Grant",
		"UserId":   targetUserID,
		"Tries":    quota.AiTries,
	}).Info("AI tries granted")
	s.emit(targetUserID, domain.EventQuotaGranted,
		fmt.Sprintf("You received %d AI tries, %d remaining", s.rules.QuotaGrantAmount, quota.AiTries))
	return quota, nil
}

func (s *quotaService) Revoke(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error) {
	if !domain.Can(actor, domain.CapManageQuota) {
		return nil, domain.ErrForbidden
	}
	quota, err := s.repo.Revoke(targetUserID, s.rules.QuotaGrantAmount)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function": "Revoke",
		"UserId":   targetUserID,
		"Tries":    quota.AiTries,
	}).Info("Premium revoked")
	s.emit(targetUserID, domain.EventQuotaRevoked, "Your premium subscription has been revoked")
	return quota, nil
}

func (s *quotaService) Get(actor domain.Actor, targetUserID uint) (*domain.UserQuota, error) {
	if targetUserID != actor.UserID && !domain.Can(actor, domain.CapManageQuota) {
		return nil, domain.ErrForbidden
	}
	return s.repo.Get(targetUserID)
}

func (s *quotaService) emit(userID uint, eventType, message string) {
	err := s.notifier.Notify(domain.NotificationEvent{
		RecipientUserID: userID,
		Message:         message,
		Type:            eventType,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to emit quota event")
	}
}
