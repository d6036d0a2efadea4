package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"clinic-ai-service/internal/domain"
	"clinic-ai-service/internal/repository"
)

// Compile-time checks that the mocks satisfy the repository contracts.
var (
	_ repository.AppointmentRepository   = (*MockAppointmentRepository)(nil)
	_ repository.QuotaRepository         = (*MockQuotaRepository)(nil)
	_ repository.MedicalRecordRepository = (*MockMedicalRecordRepository)(nil)
	_ repository.AIModelRepository       = (*MockAIModelRepository)(nil)
	_ Notifier                           = (*MockNotifier)(nil)
)

type MockAppointmentRepository struct {
	CreateFunc           func(appointment *domain.Appointment, now time.Time) error
	GetByIDFunc          func(id uint) (*domain.Appointment, error)
	RescheduleFunc       func(id, userID uint, newTime, now, leadCutoff time.Time) (*domain.Appointment, error)
	CancelFunc           func(id, userID uint, leadCutoff time.Time, enforceLead bool) (*domain.Appointment, error)
	TransitionFunc       func(id uint, from []domain.AppointmentStatus, to domain.AppointmentStatus) (*domain.Appointment, error)
	ListByUserFunc       func(userID uint) ([]domain.Appointment, error)
	ListByStatusFunc     func(status domain.AppointmentStatus) ([]domain.Appointment, error)
	MarkMissedFunc       func(now time.Time) ([]domain.Appointment, error)
	ScheduledBetweenFunc func(from, to time.Time) ([]domain.Appointment, error)

	CreateCallCount int32
}

func (m *MockAppointmentRepository) Create(appointment *domain.Appointment, now time.Time) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateFunc != nil {
		return m.CreateFunc(appointment, now)
	}
	return nil
}

func (m *MockAppointmentRepository) GetByID(id uint) (*domain.Appointment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockAppointmentRepository) Reschedule(id, userID uint, newTime, now, leadCutoff time.Time) (*domain.Appointment, error) {
	if m.RescheduleFunc != nil {
		return m.RescheduleFunc(id, userID, newTime, now, leadCutoff)
	}
	return nil, errors.New("RescheduleFunc not implemented in mock")
}

func (m *MockAppointmentRepository) Cancel(id, userID uint, leadCutoff time.Time, enforceLead bool) (*domain.Appointment, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(id, userID, leadCutoff, enforceLead)
	}
	return nil, errors.New("CancelFunc not implemented in mock")
}

func (m *MockAppointmentRepository) Transition(id uint, from []domain.AppointmentStatus, to domain.AppointmentStatus) (*domain.Appointment, error) {
	if m.TransitionFunc != nil {
		return m.TransitionFunc(id, from, to)
	}
	return nil, errors.New("TransitionFunc not implemented in mock")
}

func (m *MockAppointmentRepository) ListByUser(userID uint) ([]domain.Appointment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(userID)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) ListByStatus(status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(status)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) MarkMissed(now time.Time) ([]domain.Appointment, error) {
	if m.MarkMissedFunc != nil {
		return m.MarkMissedFunc(now)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) ScheduledBetween(from, to time.Time) ([]domain.Appointment, error) {
	if m.ScheduledBetweenFunc != nil {
		return m.ScheduledBetweenFunc(from, to)
	}
	return nil, nil
}

type MockQuotaRepository struct {
	GetFunc     func(userID uint) (*domain.UserQuota, error)
	GrantFunc   func(userID uint, amount int) (*domain.UserQuota, error)
	ConsumeFunc func(userID uint) (*domain.UserQuota, error)
	RevokeFunc  func(userID uint, amount int) (*domain.UserQuota, error)

	ConsumeCallCount int32
}

func (m *MockQuotaRepository) Get(userID uint) (*domain.UserQuota, error) {
	if m.GetFunc != nil {
		return m.GetFunc(userID)
	}
	return &domain.UserQuota{UserID: userID}, nil
}

func (m *MockQuotaRepository) Grant(userID uint, amount int) (*domain.UserQuota, error) {
	if m.GrantFunc != nil {
		return m.GrantFunc(userID, amount)
	}
	return nil, errors.New("GrantFunc not implemented in mock")
}

func (m *MockQuotaRepository) Consume(userID uint) (*domain.UserQuota, error) {
	atomic.AddInt32(&m.ConsumeCallCount, 1)
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(userID)
	}
	return nil, errors.New("ConsumeFunc not implemented in mock")
}

func (m *MockQuotaRepository) Revoke(userID uint, amount int) (*domain.UserQuota, error) {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(userID, amount)
	}
	return nil, errors.New("RevokeFunc not implemented in mock")
}

type MockMedicalRecordRepository struct {
	CreateFunc                       func(record *domain.MedicalRecord) error
	CreateForFinishedAppointmentFunc func(record *domain.MedicalRecord) error
	GetByIDFunc                      func(id uint) (*domain.MedicalRecord, error)
	ListByUserFunc                   func(userID uint) ([]domain.MedicalRecord, error)
	ListAllFunc                      func() ([]domain.MedicalRecord, error)
	SetTaskFunc                      func(recordID uint, taskID string) error
	FinalizeFunc                     func(recordID uint, diagnosis string, confidence float64) error
	MarkFailedFunc                   func(recordID uint) error

	FinalizeCallCount   int32
	MarkFailedCallCount int32
}

func (m *MockMedicalRecordRepository) Create(record *domain.MedicalRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(record)
	}
	return nil
}

func (m *MockMedicalRecordRepository) CreateForFinishedAppointment(record *domain.MedicalRecord) error {
	if m.CreateForFinishedAppointmentFunc != nil {
		return m.CreateForFinishedAppointmentFunc(record)
	}
	return nil
}

func (m *MockMedicalRecordRepository) GetByID(id uint) (*domain.MedicalRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockMedicalRecordRepository) ListByUser(userID uint) ([]domain.MedicalRecord, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(userID)
	}
	return nil, nil
}

func (m *MockMedicalRecordRepository) ListAll() ([]domain.MedicalRecord, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc()
	}
	return nil, nil
}

func (m *MockMedicalRecordRepository) SetTask(recordID uint, taskID string) error {
	if m.SetTaskFunc != nil {
		return m.SetTaskFunc(recordID, taskID)
	}
	return nil
}

func (m *MockMedicalRecordRepository) Finalize(recordID uint, diagnosis string, confidence float64) error {
	atomic.AddInt32(&m.FinalizeCallCount, 1)
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(recordID, diagnosis, confidence)
	}
	return nil
}

func (m *MockMedicalRecordRepository) MarkFailed(recordID uint) error {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(recordID)
	}
	return nil
}

type MockAIModelRepository struct {
	CreateFunc         func(model *domain.AIModel) error
	GetByIDFunc        func(id uint) (*domain.AIModel, error)
	UpdateStatusFunc   func(id uint, status domain.AIModelStatus) error
	ListFunc           func() ([]domain.AIModel, error)
	ListByStatusesFunc func(statuses []domain.AIModelStatus) ([]domain.AIModel, error)
}

func (m *MockAIModelRepository) Create(model *domain.AIModel) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(model)
	}
	return nil
}

func (m *MockAIModelRepository) GetByID(id uint) (*domain.AIModel, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, errors.New("GetByIDFunc not implemented in mock")
}

func (m *MockAIModelRepository) UpdateStatus(id uint, status domain.AIModelStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(id, status)
	}
	return nil
}

func (m *MockAIModelRepository) List() ([]domain.AIModel, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return nil, nil
}

func (m *MockAIModelRepository) ListByStatuses(statuses []domain.AIModelStatus) ([]domain.AIModel, error) {
	if m.ListByStatusesFunc != nil {
		return m.ListByStatusesFunc(statuses)
	}
	return nil, nil
}

// MockNotifier records emitted events.
type MockNotifier struct {
	mu     sync.Mutex
	Events []domain.NotificationEvent
	Err    error
}

func (m *MockNotifier) Notify(event domain.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockNotifier) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Type)
	}
	return types
}
