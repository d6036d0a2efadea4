package domain

import "time"

// Rules collects the configurable business-policy knobs. Production
// deployments override individual fields from the environment; the
// defaults here are the clinic's standing policy.
type Rules struct {
	// BookingHorizon is how far ahead a slot may be booked.
	BookingHorizon time.Duration
	// LeadTime is the minimum distance to the slot for patient-side
	// reschedule and cancel.
	LeadTime time.Duration
	// RestDays are the clinic's weekly closing days.
	RestDays []time.Weekday
	// OpenHour..CloseHour (inclusive) are the bookable hours of day.
	OpenHour  int
	CloseHour int
	// SlotMinutes are the permitted minute marks within an hour.
	SlotMinutes []int
	// QuotaGrantAmount is the fixed number of AI tries per grant/revoke.
	QuotaGrantAmount int
	// AwaitTimeout bounds how long an inference caller waits for the
	// scorer before giving up on the wait.
	AwaitTimeout time.Duration
}

func DefaultRules() Rules {
	return Rules{
		BookingHorizon:   30 * 24 * time.Hour,
		LeadTime:         7 * 24 * time.Hour,
		RestDays:         []time.Weekday{time.Friday, time.Saturday},
		OpenHour:         7,
		CloseHour:        17,
		SlotMinutes:      []int{0, 30},
		QuotaGrantAmount: 5,
		AwaitTimeout:     30 * time.Second,
	}
}
