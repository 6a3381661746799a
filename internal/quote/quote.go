// Package quote prices a delivery job into service miles. Calculation is a
// pure function of its inputs (including the clock reading) so pricing can
// be re-derived later for audit.
package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// MileMinutes is the travel/wait minutes covered by one service mile.
const MileMinutes = 5

var (
	milesPerStop          = int64(4)
	cashHandlingMiles     = int64(12)
	sitAndWaitPremiumRate = decimal.NewFromFloat(0.5)
	returnExchangeRate    = decimal.NewFromFloat(0.25)
	peakHoursRate         = decimal.NewFromFloat(0.10)
	advanceDiscountTiers  = []discountTier{
		{minHoursInAdvance: 72, percent: decimal.NewFromFloat(0.20)},
		{minHoursInAdvance: 48, percent: decimal.NewFromFloat(0.15)},
		{minHoursInAdvance: 24, percent: decimal.NewFromFloat(0.10)},
	}
)

type discountTier struct {
	minHoursInAdvance float64
	percent           decimal.Decimal
}

// Input carries the job parameters that drive pricing.
type Input struct {
	TravelMinutes      int
	WaitMinutes        int
	SitAndWait         bool
	NumberOfStops      int
	ReturnOrExchange   bool
	CashHandling       bool
	PeakHours          bool
	ScheduledStart     time.Time
	Now                time.Time
	AdvanceDiscountMax int64
}

// Adders itemizes every surcharge in miles.
type Adders struct {
	WaitTime          int64 `json:"waitTime"`
	SitAndWaitPremium int64 `json:"sitAndWaitPremium"`
	MultiStop         int64 `json:"multiStop"`
	ReturnExchange    int64 `json:"returnExchange"`
	CashHandling      int64 `json:"cashHandling"`
	PeakHours         int64 `json:"peakHours"`
}

// Discount itemizes the advance-booking discount.
type Discount struct {
	HoursInAdvance float64 `json:"hoursInAdvance"`
	Percent        float64 `json:"percent"`
	Amount         int64   `json:"amount"`
}

// Breakdown is the versioned pricing snapshot embedded into the request row.
// Historical snapshots stay decodable even if the live formula changes, so
// the shape is append-only across versions.
type Breakdown struct {
	Version   int      `json:"version"`
	BaseMiles int64    `json:"baseMiles"`
	Adders    Adders   `json:"adders"`
	Discount  Discount `json:"discount"`
	Subtotal  int64    `json:"subtotal"`
	Final     int64    `json:"final"`
}

// BreakdownVersion is the current snapshot shape.
const BreakdownVersion = 1

// Quote is the priced result.
type Quote struct {
	Base      int64
	Adders    int64
	Discount  int64
	Final     int64
	Breakdown Breakdown
}

// Calculate prices a job. The final price never drops below one mile.
func Calculate(in Input) Quote {
	base := ceilDiv(clampMinutes(in.TravelMinutes), MileMinutes)
	wait := ceilDiv(clampMinutes(in.WaitMinutes), MileMinutes)

	var sitPremium int64
	if in.SitAndWait && wait > 0 {
		sitPremium = ceilPct(wait, sitAndWaitPremiumRate)
	}

	stops := int64(in.NumberOfStops)
	if stops < 0 {
		stops = 0
	}
	multiStop := stops * milesPerStop

	var cash int64
	if in.CashHandling {
		cash = cashHandlingMiles
	}

	fixedSubtotal := base + wait + sitPremium + multiStop + cash

	var returnAdder int64
	if in.ReturnOrExchange {
		returnAdder = ceilPct(fixedSubtotal, returnExchangeRate)
	}
	var peakAdder int64
	if in.PeakHours {
		peakAdder = ceilPct(fixedSubtotal, peakHoursRate)
	}

	subtotal := fixedSubtotal + returnAdder + peakAdder

	hoursInAdvance := in.ScheduledStart.Sub(in.Now).Hours()
	percent := decimal.Zero
	for _, tier := range advanceDiscountTiers {
		if hoursInAdvance >= tier.minHoursInAdvance {
			percent = tier.percent
			break
		}
	}

	discountAmount := floorPct(subtotal, percent)
	if in.AdvanceDiscountMax > 0 && discountAmount > in.AdvanceDiscountMax {
		discountAmount = in.AdvanceDiscountMax
	}

	final := subtotal - discountAmount
	if final < 1 {
		final = 1
	}

	pct, _ := percent.Float64()
	return Quote{
		Base:     base,
		Adders:   wait + sitPremium + multiStop + cash + returnAdder + peakAdder,
		Discount: discountAmount,
		Final:    final,
		Breakdown: Breakdown{
			Version:   BreakdownVersion,
			BaseMiles: base,
			Adders: Adders{
				WaitTime:          wait,
				SitAndWaitPremium: sitPremium,
				MultiStop:         multiStop,
				ReturnExchange:    returnAdder,
				CashHandling:      cash,
				PeakHours:         peakAdder,
			},
			Discount: Discount{
				HoursInAdvance: hoursInAdvance,
				Percent:        pct,
				Amount:         discountAmount,
			},
			Subtotal: subtotal,
			Final:    final,
		},
	}
}

func clampMinutes(minutes int) int64 {
	if minutes < 0 {
		return 0
	}
	return int64(minutes)
}

func ceilDiv(value, divisor int64) int64 {
	if value <= 0 {
		return 0
	}
	return (value + divisor - 1) / divisor
}

func ceilPct(value int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(value).Mul(rate).Ceil().IntPart()
}

func floorPct(value int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(value).Mul(rate).Floor().IntPart()
}
