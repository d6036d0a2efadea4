package service

import (
	"testing"

	"clinic-ai-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func newQuotaService(repo *MockQuotaRepository, notifier *MockNotifier) QuotaService {
	return NewQuotaService(repo, notifier, domain.DefaultRules(), quietLogger())
}

func TestGrantUsesConfiguredAmount(t *testing.T) {
	var gotAmount int
	repo := &MockQuotaRepository{
		GrantFunc: func(userID uint, amount int) (*domain.UserQuota, error) {
			gotAmount = amount
			return &domain.UserQuota{UserID: userID, AiTries: amount, Premium: true}, nil
		},
	}
	notifier := &MockNotifier{}
	s := newQuotaService(repo, notifier)

	quota, err := s.Grant(admin, 7)
	assert.NoError(t, err)
	assert.Equal(t, 5, gotAmount)
	assert.True(t, quota.Premium)
	assert.Equal(t, []string{domain.EventQuotaGranted}, notifier.EventTypes())
}

func TestGrantForbiddenForPatient(t *testing.T) {
	s := newQuotaService(&MockQuotaRepository{}, &MockNotifier{})
	_, err := s.Grant(patient, 7)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRevokeClearsPremium(t *testing.T) {
	repo := &MockQuotaRepository{
		RevokeFunc: func(userID uint, amount int) (*domain.UserQuota, error) {
			assert.Equal(t, 5, amount)
			return &domain.UserQuota{UserID: userID, AiTries: 0, Premium: false}, nil
		},
	}
	notifier := &MockNotifier{}
	s := newQuotaService(repo, notifier)

	quota, err := s.Revoke(admin, 7)
	assert.NoError(t, err)
	assert.False(t, quota.Premium)
	assert.Equal(t, 0, quota.AiTries)
	assert.Equal(t, []string{domain.EventQuotaRevoked}, notifier.EventTypes())
}

func TestGetOwnQuotaAllowed(t *testing.T) {
	repo := &MockQuotaRepository{
		GetFunc: func(userID uint) (*domain.UserQuota, error) {
			return &domain.UserQuota{UserID: userID, AiTries: 3}, nil
		},
	}
	s := newQuotaService(repo, &MockNotifier{})

	quota, err := s.Get(patient, patient.UserID)
	assert.NoError(t, err)
	assert.Equal(t, 3, quota.AiTries)

	_, err = s.Get(patient, patient.UserID+1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
