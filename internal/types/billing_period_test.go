package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBillingDate(t *testing.T) {
	anchor := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		period BillingPeriod
		count  int
		want   time.Time
	}{
		{"minutely", BillingPeriodMinutely, 5, anchor.Add(5 * time.Minute)},
		{"weekly", BillingPeriodWeekly, 1, time.Date(2025, 3, 22, 10, 30, 0, 0, time.UTC)},
		{"biweekly", BillingPeriodWeekly, 2, time.Date(2025, 3, 29, 10, 30, 0, 0, time.UTC)},
		{"monthly", BillingPeriodMonthly, 1, time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)},
		{"every other month", BillingPeriodMonthly, 2, time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC)},
		{"quarterly", BillingPeriodQuarterly, 1, time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"quarterly honors count", BillingPeriodQuarterly, 2, time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)},
		{"yearly", BillingPeriodYearly, 1, time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"zero count treated as one", BillingPeriodMonthly, 0, time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)},
		{"unknown period falls back to a month", BillingPeriod("DAILY"), 1, time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextBillingDate(anchor, tc.period, tc.count)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestNextBillingDateMonotonic(t *testing.T) {
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, period := range []BillingPeriod{
		BillingPeriodMinutely, BillingPeriodWeekly, BillingPeriodMonthly,
		BillingPeriodQuarterly, BillingPeriodYearly,
	} {
		next := NextBillingDate(anchor, period, 1)
		assert.True(t, next.After(anchor), "period %s must advance", period)
	}
}

func TestNextBillingDateMonthEndRolls(t *testing.T) {
	// time.AddDate normalizes Jan 31 + 1 month to Mar 2/3; the date advances
	// rather than erroring, which is the contract.
	anchor := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	next := NextBillingDate(anchor, BillingPeriodMonthly, 1)
	assert.True(t, next.After(anchor))
	assert.Equal(t, time.March, next.Month())
}

func TestParseFrequencyToken(t *testing.T) {
	tests := []struct {
		token      string
		wantPeriod BillingPeriod
		wantCount  int
		wantErr    bool
	}{
		{"2_week", BillingPeriodWeekly, 2, false},
		{"1_month", BillingPeriodMonthly, 1, false},
		{"10_minute", BillingPeriodMinutely, 10, false},
		{"3_WEEK", BillingPeriodWeekly, 3, false},
		{"0_week", "", 0, true},
		{"-1_month", "", 0, true},
		{"week", "", 0, true},
		{"2_year", "", 0, true},
		{"x_month", "", 0, true},
		{"", "", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			period, count, err := ParseFrequencyToken(tc.token)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPeriod, period)
			assert.Equal(t, tc.wantCount, count)
		})
	}
}
