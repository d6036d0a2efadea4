package service

import (
	"fmt"
	"strings"
	"time"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AppointmentService interface {
	Create(actor domain.Actor, at time.Time) (*domain.Appointment, error)
	Reschedule(actor domain.Actor, id uint, newTime time.Time) (*domain.Appointment, error)
	Cancel(actor domain.Actor, id uint) (*domain.Appointment, error)
	Transition(actor domain.Actor, id uint, to domain.AppointmentStatus) (*domain.Appointment, error)
	Get(actor domain.Actor, id uint) (*domain.Appointment, error)
	ListByUser(actor domain.Actor) ([]domain.Appointment, error)
	ListByStatus(actor domain.Actor, status domain.AppointmentStatus) ([]domain.Appointment, error)
	MarkMissedSweep()
	SendDailyReminders()
}

type appointmentService struct {
	repo     repository.AppointmentRepository
	notifier Notifier
	rules    domain.Rules
	now      func() time.Time
	logger   *logrus.Logger
}

func NewAppointmentService(repo repository.AppointmentRepository, notifier Notifier, rules domain.Rules, logger *logrus.Logger) AppointmentService {
	return &appointmentService{
		repo:     repo,
		notifier: notifier,
		rules:    rules,
		now:      time.Now,
		logger:   logger,
	}
}

// staff transitions per the state machine; completed is reachable only
// through the medical-record upload path, never directly.
var transitionSources = map[domain.AppointmentStatus][]domain.AppointmentStatus{
	domain.StatusConfirmed: {domain.StatusPending},
	domain.StatusCancelled: {domain.StatusPending, domain.StatusConfirmed},
	domain.StatusMissed:    {domain.StatusPending, domain.StatusConfirmed},
	domain.StatusFinished:  {domain.StatusConfirmed},
}

func (s *appointmentService) Create(actor domain.Actor, at time.Time) (*domain.Appointment, error) {
	if !domain.Can(actor, domain.CapBookAppointment) {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateSlot(at, s.now(), s.rules); err != nil {
		return nil, err
	}

	appointment := &domain.Appointment{
		UserID:        actor.UserID,
		ScheduledAt:   at,
		Status:        domain.StatusPending,
		ReferenceCode: newReferenceCode(),
	}
	if err := s.repo.Create(appointment, s.now()); err != nil {
		s.logger.WithFields(logrus.Fields{
			"Function":  "Create",
			"UserId":    actor.UserID,
			"Scheduled": at,
			"Error":     err,
		}).Error("Failed to create appointment")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"Function":      "Create",
		"AppointmentId": appointment.ID,
		"UserId":        actor.UserID,
		"Reference":     appointment.ReferenceCode,
	}).Info("Appointment created")
	s.emit(actor.UserID, domain.EventAppointmentCreated,
		fmt.Sprintf("Your appointment %s is booked for %s", appointment.ReferenceCode, at.Format(time.RFC1123)))
	return appointment, nil
}

func (s *appointmentService) Reschedule(actor domain.Actor, id uint, newTime time.Time) (*domain.Appointment, error) {
	if !domain.Can(actor, domain.CapBookAppointment) {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateSlot(newTime, s.now(), s.rules); err != nil {
		return nil, err
	}
	now := s.now()
	appointment, err := s.repo.Reschedule(id, actor.UserID, newTime, now, now.Add(s.rules.LeadTime))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"Function":      "Reschedule",
			"AppointmentId": id,
			"Error":         err,
		}).Error("Failed to reschedule appointment")
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) Cancel(actor domain.Actor, id uint) (*domain.Appointment, error) {
	staff := domain.Can(actor, domain.CapManageAppointments)
	if !staff && !domain.Can(actor, domain.CapBookAppointment) {
		return nil, domain.ErrForbidden
	}
	ownerID := actor.UserID
	if staff {
		ownerID = 0 // staff may cancel anyone's appointment
	}
	leadCutoff := s.now().Add(s.rules.LeadTime)
	appointment, err := s.repo.Cancel(id, ownerID, leadCutoff, !staff)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function":      "Cancel",
		"AppointmentId": id,
	}).Info("Appointment cancelled")
	s.emit(appointment.UserID, domain.EventAppointmentCancelled,
		fmt.Sprintf("Your appointment %s has been cancelled", appointment.ReferenceCode))
	return appointment, nil
}

func (s *appointmentService) Transition(actor domain.Actor, id uint, to domain.AppointmentStatus) (*domain.Appointment, error) {
	if !domain.Can(actor, domain.CapManageAppointments) {
		return nil, domain.ErrForbidden
	}
	sources, ok := transitionSources[to]
	if !ok {
		return nil, domain.NewValidationError("status %s cannot be set directly", to)
	}
	appointment, err := s.repo.Transition(id, sources, to)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"Function":      "Transition",
		"AppointmentId": id,
		"Status":        to,
	}).Info("Appointment status updated")
	if to == domain.StatusConfirmed {
		s.emit(appointment.UserID, domain.EventAppointmentConfirmed,
			fmt.Sprintf("Your appointment %s is confirmed", appointment.ReferenceCode))
	}
	return appointment, nil
}

func (s *appointmentService) Get(actor domain.Actor, id uint) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appointment.UserID != actor.UserID && !domain.Can(actor, domain.CapManageAppointments) {
		return nil, domain.ErrForbidden
	}
	return appointment, nil
}

func (s *appointmentService) ListByUser(actor domain.Actor) ([]domain.Appointment, error) {
	return s.repo.ListByUser(actor.UserID)
}

func (s *appointmentService) ListByStatus(actor domain.Actor, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if !domain.Can(actor, domain.CapManageAppointments) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListByStatus(status)
}

// MarkMissedSweep is run periodically: active appointments whose slot
// has passed become missed.
func (s *appointmentService) MarkMissedSweep() {
	missed, err := s.repo.MarkMissed(s.now())
	if err != nil {
		s.logger.WithError(err).Error("Missed-appointment sweep failed")
		return
	}
	for _, appointment := range missed {
		s.emit(appointment.UserID, domain.EventAppointmentMissed,
			fmt.Sprintf("You missed your appointment %s", appointment.ReferenceCode))
	}
	if len(missed) > 0 {
		s.logger.WithField("Count", len(missed)).Info("Marked appointments as missed")
	}
}

// SendDailyReminders emits a reminder event for every active
// appointment within the next 24 hours.
func (s *appointmentService) SendDailyReminders() {
	now := s.now()
	upcoming, err := s.repo.ScheduledBetween(now, now.Add(24*time.Hour))
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch appointments for reminders")
		return
	}
	for _, appointment := range upcoming {
		s.emit(appointment.UserID, domain.EventAppointmentReminder,
			fmt.Sprintf("Reminder: appointment %s at %s", appointment.ReferenceCode,
				appointment.ScheduledAt.Format(time.RFC1123)))
	}
}

func (s *appointmentService) emit(userID uint, eventType, message string) {
	err := s.notifier.Notify(domain.NotificationEvent{
		RecipientUserID: userID,
		Message:         message,
		Type:            eventType,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"UserId": userID,
			"Type":   eventType,
			"Error":  err,
		}).Error("Failed to emit notification event")
	}
}

func newReferenceCode() string {
	return "APT-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
