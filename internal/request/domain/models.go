package domain

import (
	"errors"
	"time"

	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RequestStatus is the delivery lifecycle state.
type RequestStatus string

const (
	StatusRequested RequestStatus = "REQUESTED"
	StatusAssigned  RequestStatus = "ASSIGNED"
	StatusPickedUp  RequestStatus = "PICKED_UP"
	StatusEnRoute   RequestStatus = "EN_ROUTE"
	StatusDelivered RequestStatus = "DELIVERED"
	StatusCanceled  RequestStatus = "CANCELED"
)

// Cancellation fees by how far along the job is.
const (
	CancelFeeUnassigned int64 = 0
	CancelFeeAssigned   int64 = 5
	CancelFeeArrived    int64 = 15
)

// DeliveryRequest is one customer job. The quote breakdown is snapshotted
// at submission so pricing disputes replay against the rates in force at
// the time, not the current formula.
type DeliveryRequest struct {
	ID                   snowflake.ID           `gorm:"primaryKey" json:"id"`
	UserID               string                 `gorm:"type:text;not null;index" json:"userId"`
	Status               RequestStatus          `gorm:"type:text;not null;index" json:"status"`
	ServiceType          plandomain.ServiceType `gorm:"type:text;not null" json:"serviceType"`
	PickupAddress        string                 `gorm:"type:text;not null" json:"pickupAddress"`
	DropoffAddress       string                 `gorm:"type:text;not null" json:"dropoffAddress"`
	Notes                string                 `gorm:"type:text;not null" json:"notes,omitempty"`
	Priority             bool                   `gorm:"not null;default:false" json:"priority"`
	CashHandling         bool                   `gorm:"not null;default:false" json:"cashHandling"`
	ScheduledStart       *time.Time             `json:"scheduledStart,omitempty"`
	ServiceMilesBase     int64                  `gorm:"not null;default:0" json:"serviceMilesBase"`
	ServiceMilesAdders   int64                  `gorm:"not null;default:0" json:"serviceMilesAdders"`
	ServiceMilesDiscount int64                  `gorm:"not null;default:0" json:"serviceMilesDiscount"`
	ServiceMilesQuoted   int64                  `gorm:"not null;default:0" json:"serviceMilesQuoted"`
	ServiceMilesPaid     int64                  `gorm:"not null;default:0" json:"serviceMilesPaid"`
	QuoteBreakdown       datatypes.JSON         `gorm:"type:text" json:"quoteBreakdown"`
	DeliveryFeePaid      bool                   `gorm:"not null;default:false" json:"deliveryFeePaid"`
	IdempotencyKey       *string                `gorm:"type:text" json:"idempotencyKey,omitempty"`
	AssignedDriverID     *string                `gorm:"type:text" json:"assignedDriverId,omitempty"`
	ArrivedAt            *time.Time             `json:"arrivedAt,omitempty"`
	CanceledAt           *time.Time             `json:"canceledAt,omitempty"`
	CreatedAt            time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt            time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (DeliveryRequest) TableName() string { return "delivery_requests" }

// CancellationFee returns the fee owed for canceling in the current state.
// Delivered and already-canceled requests never reach fee calculation.
func (r *DeliveryRequest) CancellationFee() int64 {
	if r.ArrivedAt != nil {
		return CancelFeeArrived
	}
	switch r.Status {
	case StatusRequested:
		return CancelFeeUnassigned
	case StatusAssigned:
		return CancelFeeAssigned
	default:
		return CancelFeeArrived
	}
}

var (
	ErrRequestNotFound            = errors.New("request_not_found")
	ErrInvalidServiceType         = errors.New("invalid_service_type")
	ErrPlanNotAllowed             = errors.New("plan_not_allowed")
	ErrCompletedRequestsImmutable = errors.New("completed_requests_immutable")
	ErrRequestStateChanged        = errors.New("request_state_changed")
)
