package domain

import (
	"context"
	"errors"
	"time"
)

// BillingEvent is a paid-invoice notification from the billing provider.
// One event per user per billing period; the invoice ID is the idempotency
// anchor for the whole allocation.
type BillingEvent struct {
	InvoiceID string
	UserID    string
	PlanName  string
	PeriodEnd *time.Time
}

// Outcome labels how an allocation attempt resolved.
type Outcome string

const (
	// OutcomeSuccess means this call performed the allocation.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeAlreadyProcessed means a prior call already allocated this
	// invoice; balances are unchanged.
	OutcomeAlreadyProcessed Outcome = "ALREADY_PROCESSED"
	// OutcomeRaceDetected means a concurrent call won the marker insert
	// mid-transaction; this call rolled back without side effects.
	OutcomeRaceDetected Outcome = "RACE_CONDITION_DETECTED"
)

// Result summarizes an allocation for the webhook response.
type Result struct {
	Outcome      Outcome `json:"outcome"`
	GrantedMiles int64   `json:"grantedMiles"`
	ExpiredMiles int64   `json:"expiredMiles"`
	RolloverBank int64   `json:"rolloverBank"`
	NewBalance   int64   `json:"newBalance"`
	Unlimited    bool    `json:"unlimited"`
}

// Service applies a billing event: upserts the membership, rolls the wallet
// over, grants the month's miles, and records it all in the ledger.
type Service interface {
	Allocate(ctx context.Context, event BillingEvent) (*Result, error)
}

var (
	ErrInvalidEvent = errors.New("invalid_billing_event")
)
