package domain

import (
	"context"
	"time"

	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
)

// SubmitInput is everything a customer supplies when requesting a delivery.
// PayWithMiles false submits the job priced but undebited; settlement then
// happens outside the wallet.
type SubmitInput struct {
	UserID           string
	ServiceType      plandomain.ServiceType
	PickupAddress    string
	DropoffAddress   string
	Notes            string
	Priority         bool
	CashHandling     bool
	SitAndWait       bool
	ReturnOrExchange bool
	PeakHours        bool
	PayWithMiles     bool
	TravelMinutes    int
	WaitMinutes      int
	NumberOfStops    int
	ScheduledStart   *time.Time
	IdempotencyKey   string
}

// CancelResult reports what a cancellation cost and returned.
type CancelResult struct {
	RequestID       snowflake.ID  `json:"requestId"`
	Status          RequestStatus `json:"status"`
	FeeMiles        int64         `json:"feeMiles"`
	RefundMiles     int64         `json:"refundMiles"`
	AlreadyCanceled bool          `json:"alreadyCanceled"`
}

// Service owns the customer-facing request lifecycle: submission debits the
// wallet, cancellation refunds it net of fees, and the driver transitions
// move the fee tier forward.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*DeliveryRequest, error)
	Cancel(ctx context.Context, userID string, requestID snowflake.ID) (*CancelResult, error)
	GetByID(ctx context.Context, userID string, requestID snowflake.ID) (*DeliveryRequest, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]DeliveryRequest, error)

	Assign(ctx context.Context, requestID snowflake.ID, driverID string) error
	MarkArrived(ctx context.Context, requestID snowflake.ID) error
	MarkDelivered(ctx context.Context, requestID snowflake.ID) error
}
