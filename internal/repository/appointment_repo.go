package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-ai-service/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentRepository interface {
	Create(appointment *domain.Appointment, now time.Time) error
	GetByID(id uint) (*domain.Appointment, error)
	Reschedule(id, userID uint, newTime, now, leadCutoff time.Time) (*domain.Appointment, error)
	Cancel(id, userID uint, leadCutoff time.Time, enforceLead bool) (*domain.Appointment, error)
	Transition(id uint, from []domain.AppointmentStatus, to domain.AppointmentStatus) (*domain.Appointment, error)
	ListByUser(userID uint) ([]domain.Appointment, error)
	ListByStatus(status domain.AppointmentStatus) ([]domain.Appointment, error)
	MarkMissed(now time.Time) ([]domain.Appointment, error)
	ScheduledBetween(from, to time.Time) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{
		db: db,
	}
}

// Create inserts a new pending appointment. The exclusion checks run
// again inside a SERIALIZABLE transaction with the matching row sets
// locked, so two concurrent requests that both passed an unlocked
// pre-check cannot both insert. When both row sets are empty the locks
// hold nothing and the loser of a true same-slot race aborts at commit
// with SQLSTATE 40001; one retry then sees the winner's committed row
// and returns the structured conflict instead.
func (r *appointmentRepository) Create(appointment *domain.Appointment, now time.Time) error {
	err := r.createTx(appointment, now)
	if serializationFailure(err) {
		appointment.ID = 0
		err = r.createTx(appointment, now)
		if serializationFailure(err) {
			return domain.ErrSlotTaken
		}
	}
	return err
}

func (r *appointmentRepository) createTx(appointment *domain.Appointment, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkSlotConflicts(tx, appointment.UserID, appointment.ScheduledAt, 0, now); err != nil {
			return err
		}
		return tx.Create(appointment).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// serializationFailure reports a postgres SSI abort (SQLSTATE 40001).
func serializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

// checkSlotConflicts locks the same-timestamp active set and the
// same-user future-active set, then re-validates both exclusion
// conditions. excludeID skips the appointment being rescheduled.
func checkSlotConflicts(tx *gorm.DB, userID uint, at time.Time, excludeID uint, now time.Time) error {
	var sameSlot []domain.Appointment
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scheduled_at = ? AND status IN ?", at, domain.ActiveStatuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&sameSlot).Error; err != nil {
		return err
	}
	if len(sameSlot) > 0 {
		return domain.ErrSlotTaken
	}

	var sameUser []domain.Appointment
	q = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND scheduled_at > ? AND status IN ?", userID, now, domain.ActiveStatuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&sameUser).Error; err != nil {
		return err
	}
	if len(sameUser) > 0 {
		return domain.ErrDuplicateActive
	}
	return nil
}

func (r *appointmentRepository) GetByID(id uint) (*domain.Appointment, error) {
	var appointment domain.Appointment
	if err := r.db.First(&appointment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// Reschedule moves a pending appointment to a new slot. Only permitted
// while the current slot is further out than the lead cutoff, and the
// new slot must pass the same conflict checks as a fresh booking. The
// SSI loser of a concurrent same-slot race retries once, like Create.
func (r *appointmentRepository) Reschedule(id, userID uint, newTime, now, leadCutoff time.Time) (*domain.Appointment, error) {
	appointment, err := r.rescheduleTx(id, userID, newTime, now, leadCutoff)
	if serializationFailure(err) {
		appointment, err = r.rescheduleTx(id, userID, newTime, now, leadCutoff)
		if serializationFailure(err) {
			return nil, domain.ErrSlotTaken
		}
	}
	return appointment, err
}

func (r *appointmentRepository) rescheduleTx(id, userID uint, newTime, now, leadCutoff time.Time) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&appointment, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if appointment.Status != domain.StatusPending {
			return domain.NewValidationError("only pending appointments can be rescheduled")
		}
		if !appointment.ScheduledAt.After(leadCutoff) {
			return domain.NewValidationError("appointment is too close to be rescheduled")
		}
		if err := checkSlotConflicts(tx, userID, newTime, appointment.ID, now); err != nil {
			return err
		}
		appointment.ScheduledAt = newTime
		return tx.Model(&appointment).Update("scheduled_at", newTime).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Cancel sets an active appointment to cancelled. Patient callers are
// held to the same lead time as reschedule; staff pass enforceLead=false.
func (r *appointmentRepository) Cancel(id, userID uint, leadCutoff time.Time, enforceLead bool) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		if err := q.First(&appointment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if appointment.Status != domain.StatusPending && appointment.Status != domain.StatusConfirmed {
			return domain.NewValidationError("only pending or confirmed appointments can be cancelled")
		}
		if enforceLead && !appointment.ScheduledAt.After(leadCutoff) {
			return domain.NewValidationError("appointment is too close to be cancelled")
		}
		appointment.Status = domain.StatusCancelled
		return tx.Model(&appointment).Update("status", domain.StatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Transition applies a staff state-machine move. The row is locked and
// the current status must be one of the permitted sources.
func (r *appointmentRepository) Transition(id uint, from []domain.AppointmentStatus, to domain.AppointmentStatus) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&appointment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		allowed := false
		for _, s := range from {
			if appointment.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return domain.NewValidationError("cannot move appointment from %s to %s", appointment.Status, to)
		}
		appointment.Status = to
		return tx.Model(&appointment).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByUser(userID uint) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.Where("user_id = ?", userID).Order("scheduled_at ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByStatus(status domain.AppointmentStatus) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.Where("status = ?", status).Order("scheduled_at ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// MarkMissed flips active appointments whose slot has passed to missed
// and returns them so the caller can emit events.
func (r *appointmentRepository) MarkMissed(now time.Time) ([]domain.Appointment, error) {
	var missed []domain.Appointment
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("scheduled_at < ? AND status IN ?", now, domain.ActiveStatuses).
			Find(&missed).Error; err != nil {
			return err
		}
		if len(missed) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(missed))
		for i := range missed {
			ids = append(ids, missed[i].ID)
			missed[i].Status = domain.StatusMissed
		}
		return tx.Model(&domain.Appointment{}).Where("id IN ?", ids).
			Update("status", domain.StatusMissed).Error
	})
	if err != nil {
		return nil, fmt.Errorf("mark missed sweep: %w", err)
	}
	return missed, nil
}

func (r *appointmentRepository) ScheduledBetween(from, to time.Time) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	err := r.db.Where("scheduled_at BETWEEN ? AND ? AND status IN ?", from, to, domain.ActiveStatuses).
		Order("scheduled_at ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
