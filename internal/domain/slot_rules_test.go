package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// now is a Saturday noon so relative offsets land on known weekdays.
var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func slot(day int, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestValidateSlotAccepts(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name string
		t    time.Time
	}{
		{"monday morning on the hour", slot(10, 9, 0)},   // 2025-03-10 is a Monday
		{"monday morning half hour", slot(10, 9, 30)},
		{"opening hour", slot(10, 7, 0)},
		{"last bookable half hour", slot(10, 17, 30)},
		{"sunday is a working day", slot(9, 10, 0)},
		{"thursday within horizon", slot(27, 11, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, ValidateSlot(tc.t, testNow, rules))
		})
	}
}

func TestValidateSlotRejects(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name   string
		t      time.Time
		reason string
	}{
		{"in the past", slot(1, 9, 0), ReasonNotFuture},
		{"exactly now", testNow, ReasonNotFuture},
		{"beyond thirty days", testNow.Add(31 * 24 * time.Hour), ReasonBeyondHorizon},
		{"friday rest day", slot(7, 9, 0), ReasonRestDay},
		{"saturday rest day", slot(8, 9, 0), ReasonRestDay},
		{"before opening", slot(10, 6, 30), ReasonOutsideHours},
		{"after closing", slot(10, 18, 0), ReasonOutsideHours},
		{"quarter past", slot(10, 9, 15), ReasonMisaligned},
		{"odd seconds", time.Date(2025, 3, 10, 9, 30, 5, 0, time.UTC), ReasonMisaligned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSlot(tc.t, testNow, rules)
			assert.Error(t, err)
			assert.EqualError(t, err, tc.reason)
		})
	}
}

// Verdicts must be deterministic: re-running with the same inputs
// always yields the same answer.
func TestValidateSlotDeterministic(t *testing.T) {
	rules := DefaultRules()
	candidate := slot(10, 9, 0)
	first := ValidateSlot(candidate, testNow, rules)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ValidateSlot(candidate, testNow, rules))
	}
}

func TestValidateSlotHonorsConfiguredRules(t *testing.T) {
	rules := DefaultRules()
	rules.RestDays = []time.Weekday{time.Sunday}
	rules.SlotMinutes = []int{0, 15, 30, 45}

	assert.NoError(t, ValidateSlot(slot(7, 9, 15), testNow, rules))  // Friday now bookable
	assert.EqualError(t, ValidateSlot(slot(9, 9, 0), testNow, rules), ReasonRestDay)
}
