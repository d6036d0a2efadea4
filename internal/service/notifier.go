package service

import "clinic-ai-service/internal/domain"

// Notifier receives fire-and-forget events for the external delivery
// collaborator. Emission is best-effort: a failed notification is
// logged by callers and never fails the business operation.
type Notifier interface {
	Notify(event domain.NotificationEvent) error
}
