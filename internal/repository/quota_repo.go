package repository

import (
	"errors"
	"fmt"

	"clinic-ai-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuotaRepository interface {
	Get(userID uint) (*domain.UserQuota, error)
	Grant(userID uint, amount int) (*domain.UserQuota, error)
	Consume(userID uint) (*domain.UserQuota, error)
	Revoke(userID uint, amount int) (*domain.UserQuota, error)
}

type quotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{
		db: db,
	}
}

func (r *quotaRepository) Get(userID uint) (*domain.UserQuota, error) {
	var quota domain.UserQuota
	err := r.db.First(&quota, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.UserQuota{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

// lockRow reads the user's ledger row FOR UPDATE, creating it lazily.
// All mutations go through this so the read-modify-write is atomic per
// user row.
func lockRow(tx *gorm.DB, userID uint) (*domain.UserQuota, error) {
	var quota domain.UserQuota
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&quota, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		quota = domain.UserQuota{UserID: userID}
		if err := tx.Create(&quota).Error; err != nil {
			return nil, err
		}
		return &quota, nil
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

// Grant adds the fixed try amount and marks the user premium.
func (r *quotaRepository) Grant(userID uint, amount int) (*domain.UserQuota, error) {
	var quota *domain.UserQuota
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		quota, err = lockRow(tx, userID)
		if err != nil {
			return err
		}
		quota.AiTries += amount
		quota.Premium = true
		return tx.Save(quota).Error
	})
	if err != nil {
		return nil, err
	}
	return quota, nil
}

// Consume debits exactly one try. Callers must invoke it only after the
// paired inference has fully succeeded; on any failure path no debit
// happens.
func (r *quotaRepository) Consume(userID uint) (*domain.UserQuota, error) {
	var quota *domain.UserQuota
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		quota, err = lockRow(tx, userID)
		if err != nil {
			return err
		}
		if quota.AiTries <= 0 {
			return domain.ErrQuotaEmpty
		}
		quota.AiTries--
		if quota.AiTries < 0 {
			return fmt.Errorf("%w: negative try count for user %d", domain.ErrInvariant, userID)
		}
		return tx.Save(quota).Error
	})
	if err != nil {
		return nil, err
	}
	return quota, nil
}

// Revoke removes the fixed grant amount, floored at zero, and clears
// the premium flag.
func (r *quotaRepository) Revoke(userID uint, amount int) (*domain.UserQuota, error) {
	var quota *domain.UserQuota
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		quota, err = lockRow(tx, userID)
		if err != nil {
			return err
		}
		if quota.AiTries > amount {
			quota.AiTries -= amount
		} else {
			quota.AiTries = 0
		}
		quota.Premium = false
		return tx.Save(quota).Error
	})
	if err != nil {
		return nil, err
	}
	return quota, nil
}
