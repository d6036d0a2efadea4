package domain

type Role string

const (
	RoleUser    Role = "user"
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

// Actor is the verified identity attached to every request by the
// upstream auth gateway.
type Actor struct {
	UserID  uint
	Role    Role
	Premium bool
}

type Capability string

const (
	CapBookAppointment        Capability = "appointment.book"
	CapManageAppointments     Capability = "appointment.manage"
	CapSubmitInference        Capability = "inference.submit"
	CapUploadRecord           Capability = "record.upload"
	CapUploadRecordForPatient Capability = "record.upload_for_patient"
	CapManageModels           Capability = "model.manage"
	CapUseVipModels           Capability = "model.use_vip"
	CapManageQuota            Capability = "quota.manage"
)

// Can is the single capability check consulted by every service.
func Can(actor Actor, cap Capability) bool {
	switch cap {
	case CapBookAppointment, CapSubmitInference, CapUploadRecord:
		return actor.Role == RoleUser || actor.Role == RolePatient
	case CapUseVipModels:
		return actor.Premium
	case CapManageAppointments, CapManageModels, CapManageQuota, CapUploadRecordForPatient:
		return actor.Role == RoleAdmin
	}
	return false
}
