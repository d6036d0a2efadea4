package repository

import (
	"errors"
	"fmt"

	"clinic-ai-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicalRecordRepository interface {
	Create(record *domain.MedicalRecord) error
	CreateForFinishedAppointment(record *domain.MedicalRecord) error
	GetByID(id uint) (*domain.MedicalRecord, error)
	ListByUser(userID uint) ([]domain.MedicalRecord, error)
	ListAll() ([]domain.MedicalRecord, error)
	SetTask(recordID uint, taskID string) error
	Finalize(recordID uint, diagnosis string, confidence float64) error
	MarkFailed(recordID uint) error
}

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) MedicalRecordRepository {
	return &medicalRecordRepository{
		db: db,
	}
}

func (r *medicalRecordRepository) Create(record *domain.MedicalRecord) error {
	return r.db.Create(record).Error
}

// CreateForFinishedAppointment is the staff upload path: the target
// user's most recent appointment must be finished; the same transaction
// advances it to completed and links it to the new record. This keeps
// every staff-mediated record traceable to a real visit.
func (r *medicalRecordRepository) CreateForFinishedAppointment(record *domain.MedicalRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var latest domain.Appointment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", record.UserID).
			Order("scheduled_at DESC").
			First(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoFinishedAppointment
		}
		if err != nil {
			return err
		}
		if latest.Status != domain.StatusFinished {
			return domain.ErrNoFinishedAppointment
		}
		if err := tx.Model(&latest).Update("status", domain.StatusCompleted).Error; err != nil {
			return err
		}
		record.AppointmentID = &latest.ID
		return tx.Create(record).Error
	})
}

func (r *medicalRecordRepository) GetByID(id uint) (*domain.MedicalRecord, error) {
	var record domain.MedicalRecord
	if err := r.db.Preload("Appointment").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByUser(userID uint) ([]domain.MedicalRecord, error) {
	var records []domain.MedicalRecord
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *medicalRecordRepository) ListAll() ([]domain.MedicalRecord, error) {
	var records []domain.MedicalRecord
	err := r.db.Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *medicalRecordRepository) SetTask(recordID uint, taskID string) error {
	return r.db.Model(&domain.MedicalRecord{}).Where("id = ?", recordID).
		Update("task_id", taskID).Error
}

// Finalize atomically replaces the processing sentinel with the
// normalized result. A record that is not in processing state cannot be
// finalized; that would mean the debit pairing broke somewhere.
func (r *medicalRecordRepository) Finalize(recordID uint, diagnosis string, confidence float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record domain.MedicalRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if record.InterpretationState != domain.InterpretationProcessing {
			return fmt.Errorf("%w: finalize on record %d in state %q",
				domain.ErrInvariant, recordID, record.InterpretationState)
		}
		return tx.Model(&record).Updates(map[string]any{
			"diagnosis":            diagnosis,
			"confidence":           confidence,
			"interpretation_state": domain.InterpretationFinalized,
		}).Error
	})
}

func (r *medicalRecordRepository) MarkFailed(recordID uint) error {
	return r.db.Model(&domain.MedicalRecord{}).
		Where("id = ? AND interpretation_state = ?", recordID, domain.InterpretationProcessing).
		Update("interpretation_state", domain.InterpretationFailed).Error
}
