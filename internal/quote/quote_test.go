package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCalculateBaseRounding(t *testing.T) {
	tests := []struct {
		name          string
		travelMinutes int
		wantBase      int64
	}{
		{"zero travel", 0, 0},
		{"negative travel clamps", -10, 0},
		{"exact block", 10, 2},
		{"11 minutes rounds up", 11, 3},
		{"one minute is a full mile", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Calculate(Input{TravelMinutes: tt.travelMinutes, Now: testNow, ScheduledStart: testNow})
			assert.Equal(t, tt.wantBase, q.Base)
		})
	}
}

func TestCalculateMinimumPrice(t *testing.T) {
	q := Calculate(Input{Now: testNow, ScheduledStart: testNow})
	assert.Equal(t, int64(1), q.Final, "empty job still costs one mile")
	assert.Equal(t, int64(0), q.Breakdown.Subtotal)
}

func TestCalculateAdders(t *testing.T) {
	q := Calculate(Input{
		TravelMinutes:  25, // 5 miles
		WaitMinutes:    12, // 3 miles
		NumberOfStops:  2,  // 8 miles
		CashHandling:   true,
		Now:            testNow,
		ScheduledStart: testNow,
	})

	assert.Equal(t, int64(5), q.Base)
	assert.Equal(t, int64(3), q.Breakdown.Adders.WaitTime)
	assert.Equal(t, int64(8), q.Breakdown.Adders.MultiStop)
	assert.Equal(t, int64(12), q.Breakdown.Adders.CashHandling)
	assert.Equal(t, int64(28), q.Breakdown.Subtotal)
	assert.Equal(t, int64(28), q.Final)
}

func TestCalculatePercentageAddersOnFixedSubtotal(t *testing.T) {
	// fixed subtotal = 5 + 3 = 8; return = ceil(8*0.25) = 2; peak = ceil(8*0.10) = 1.
	q := Calculate(Input{
		TravelMinutes:    25,
		WaitMinutes:      12,
		ReturnOrExchange: true,
		PeakHours:        true,
		Now:              testNow,
		ScheduledStart:   testNow,
	})

	assert.Equal(t, int64(2), q.Breakdown.Adders.ReturnExchange)
	assert.Equal(t, int64(1), q.Breakdown.Adders.PeakHours)
	assert.Equal(t, int64(11), q.Breakdown.Subtotal)
}

func TestCalculateSitAndWaitPremium(t *testing.T) {
	// wait = ceil(13/5) = 3; premium = ceil(3*0.5) = 2.
	q := Calculate(Input{
		WaitMinutes:    13,
		SitAndWait:     true,
		Now:            testNow,
		ScheduledStart: testNow,
	})
	assert.Equal(t, int64(2), q.Breakdown.Adders.SitAndWaitPremium)

	// No premium without wait time.
	q = Calculate(Input{SitAndWait: true, Now: testNow, ScheduledStart: testNow})
	assert.Equal(t, int64(0), q.Breakdown.Adders.SitAndWaitPremium)
}

func TestCalculateAdvanceDiscountTiers(t *testing.T) {
	tests := []struct {
		name         string
		hoursAhead   time.Duration
		wantPercent  float64
		wantDiscount int64
	}{
		{"same day", 2 * time.Hour, 0, 0},
		{"24 hours", 24 * time.Hour, 0.10, 2},
		{"48 hours", 48 * time.Hour, 0.15, 4},
		{"72 hours", 72 * time.Hour, 0.20, 5},
		{"a week out caps at top tier", 168 * time.Hour, 0.20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// subtotal = ceil(140/5) = 28 miles.
			q := Calculate(Input{
				TravelMinutes:  140,
				Now:            testNow,
				ScheduledStart: testNow.Add(tt.hoursAhead),
			})
			assert.Equal(t, tt.wantPercent, q.Breakdown.Discount.Percent)
			assert.Equal(t, tt.wantDiscount, q.Discount)
			assert.Equal(t, int64(28)-tt.wantDiscount, q.Final)
		})
	}
}

func TestCalculateAdvanceDiscountCap(t *testing.T) {
	// subtotal = 28, top tier would be floor(28*0.20) = 5, capped at 3.
	q := Calculate(Input{
		TravelMinutes:      140,
		Now:                testNow,
		ScheduledStart:     testNow.Add(96 * time.Hour),
		AdvanceDiscountMax: 3,
	})
	assert.Equal(t, int64(3), q.Discount)
	assert.Equal(t, int64(25), q.Final)

	// Zero cap means uncapped.
	q = Calculate(Input{
		TravelMinutes:      140,
		Now:                testNow,
		ScheduledStart:     testNow.Add(96 * time.Hour),
		AdvanceDiscountMax: 0,
	})
	assert.Equal(t, int64(5), q.Discount)
}

func TestCalculateDeterministic(t *testing.T) {
	in := Input{
		TravelMinutes:    47,
		WaitMinutes:      8,
		SitAndWait:       true,
		NumberOfStops:    3,
		ReturnOrExchange: true,
		CashHandling:     true,
		PeakHours:        true,
		Now:              testNow,
		ScheduledStart:   testNow.Add(50 * time.Hour),
	}
	first := Calculate(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calculate(in))
	}
	assert.Equal(t, BreakdownVersion, first.Breakdown.Version)
}
