package repository

import (
	"errors"

	"clinic-ai-service/internal/domain"

	"gorm.io/gorm"
)

type AIModelRepository interface {
	Create(model *domain.AIModel) error
	GetByID(id uint) (*domain.AIModel, error)
	UpdateStatus(id uint, status domain.AIModelStatus) error
	List() ([]domain.AIModel, error)
	ListByStatuses(statuses []domain.AIModelStatus) ([]domain.AIModel, error)
}

type aiModelRepository struct {
	db *gorm.DB
}

func NewAIModelRepository(db *gorm.DB) AIModelRepository {
	return &aiModelRepository{
		db: db,
	}
}

func (r *aiModelRepository) Create(model *domain.AIModel) error {
	return r.db.Create(model).Error
}

func (r *aiModelRepository) GetByID(id uint) (*domain.AIModel, error) {
	var model domain.AIModel
	if err := r.db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

func (r *aiModelRepository) UpdateStatus(id uint, status domain.AIModelStatus) error {
	res := r.db.Model(&domain.AIModel{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *aiModelRepository) List() ([]domain.AIModel, error) {
	var models []domain.AIModel
	if err := r.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (r *aiModelRepository) ListByStatuses(statuses []domain.AIModelStatus) ([]domain.AIModel, error) {
	var models []domain.AIModel
	if err := r.db.Where("status IN ?", statuses).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}
