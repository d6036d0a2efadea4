package config

import (
	"os"
	"strconv"
	"time"

	"clinic-ai-service/internal/domain"
)

// LoadRules returns the business-policy knobs, starting from the
// standing defaults and applying environment overrides. Deployment
// choices such as lead time or grant amount are configuration, not
// hard-coded policy.
func LoadRules() domain.Rules {
	rules := domain.DefaultRules()
	if v := envInt("BOOKING_HORIZON_DAYS"); v > 0 {
		rules.BookingHorizon = time.Duration(v) * 24 * time.Hour
	}
	if v := envInt("LEAD_TIME_HOURS"); v > 0 {
		rules.LeadTime = time.Duration(v) * time.Hour
	}
	if v := envInt("QUOTA_GRANT_AMOUNT"); v > 0 {
		rules.QuotaGrantAmount = v
	}
	if v := envInt("AWAIT_TIMEOUT_SECONDS"); v > 0 {
		rules.AwaitTimeout = time.Duration(v) * time.Second
	}
	return rules
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
