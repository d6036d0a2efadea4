package domain

import "time"

// Slot rejection reasons, surfaced to callers as InvalidTime:<rule>.
const (
	ReasonNotFuture     = "InvalidTime:not_future"
	ReasonBeyondHorizon = "InvalidTime:beyond_horizon"
	ReasonRestDay       = "InvalidTime:rest_day"
	ReasonOutsideHours  = "InvalidTime:outside_hours"
	ReasonMisaligned    = "InvalidTime:misaligned"
)

// ValidateSlot checks a candidate appointment time against the booking
// policy. It is a pure function of (t, now, rules): no storage access,
// same verdict for the same inputs.
func ValidateSlot(t, now time.Time, rules Rules) error {
	if !t.After(now) {
		return ValidationError{Reason: ReasonNotFuture}
	}
	if t.After(now.Add(rules.BookingHorizon)) {
		return ValidationError{Reason: ReasonBeyondHorizon}
	}
	for _, d := range rules.RestDays {
		if t.Weekday() == d {
			return ValidationError{Reason: ReasonRestDay}
		}
	}
	if h := t.Hour(); h < rules.OpenHour || h > rules.CloseHour {
		return ValidationError{Reason: ReasonOutsideHours}
	}
	minuteOK := false
	for _, m := range rules.SlotMinutes {
		if t.Minute() == m {
			minuteOK = true
			break
		}
	}
	if !minuteOK || t.Second() != 0 {
		return ValidationError{Reason: ReasonMisaligned}
	}
	return nil
}
