package types

import (
	"strconv"
	"strings"
	"time"

	ierr "github.com/loopcart/loopcart/internal/errors"
)

// BillingPeriod is the unit of a plan's billing interval.
type BillingPeriod string

const (
	BillingPeriodMinutely  BillingPeriod = "MINUTELY"
	BillingPeriodWeekly    BillingPeriod = "WEEKLY"
	BillingPeriodMonthly   BillingPeriod = "MONTHLY"
	BillingPeriodQuarterly BillingPeriod = "QUARTERLY"
	BillingPeriodYearly    BillingPeriod = "YEARLY"
)

func (p BillingPeriod) Validate() error {
	switch p {
	case BillingPeriodMinutely, BillingPeriodWeekly, BillingPeriodMonthly,
		BillingPeriodQuarterly, BillingPeriodYearly:
		return nil
	}
	return ierr.NewErrorf("invalid billing period: %s", p).
		Mark(ierr.ErrValidation)
}

// NextBillingDate returns the next billing instant after from for the given
// period and count. Month-based periods use calendar month arithmetic
// (time.AddDate semantics, so Jan 31 + 1 month rolls forward), not fixed-size
// blocks. An unknown period falls back to one calendar month. The anchor's
// location is preserved; no rounding is applied.
func NextBillingDate(from time.Time, period BillingPeriod, count int) time.Time {
	if count < 1 {
		count = 1
	}

	switch period {
	case BillingPeriodMinutely:
		return from.Add(time.Duration(count) * time.Minute)
	case BillingPeriodWeekly:
		return from.AddDate(0, 0, 7*count)
	case BillingPeriodMonthly:
		return from.AddDate(0, count, 0)
	case BillingPeriodQuarterly:
		return from.AddDate(0, 3*count, 0)
	case BillingPeriodYearly:
		return from.AddDate(count, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// frequencyUnits maps the customer-facing "<count>_<unit>" token units to
// billing periods. Only the self-service frequency endpoint accepts these.
var frequencyUnits = map[string]BillingPeriod{
	"minute": BillingPeriodMinutely,
	"week":   BillingPeriodWeekly,
	"month":  BillingPeriodMonthly,
}

// ParseFrequencyToken parses a "<count>_<unit>" token such as "2_week" into a
// billing period and count.
func ParseFrequencyToken(token string) (BillingPeriod, int, error) {
	parts := strings.SplitN(strings.TrimSpace(token), "_", 2)
	if len(parts) != 2 {
		return "", 0, ierr.NewErrorf("invalid frequency token: %s", token).
			WithHint("Frequency must look like 2_week or 1_month").
			Mark(ierr.ErrValidation)
	}

	count, err := strconv.Atoi(parts[0])
	if err != nil || count < 1 {
		return "", 0, ierr.NewErrorf("invalid frequency count: %s", parts[0]).
			WithHint("Frequency count must be a positive integer").
			Mark(ierr.ErrValidation)
	}

	period, ok := frequencyUnits[strings.ToLower(parts[1])]
	if !ok {
		return "", 0, ierr.NewErrorf("invalid frequency unit: %s", parts[1]).
			WithHint("Frequency unit must be one of minute, week, month").
			Mark(ierr.ErrValidation)
	}

	return period, count, nil
}
