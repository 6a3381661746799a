package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TransactionType tags every ledger row with the mutation that produced it.
type TransactionType string

const (
	// TransactionTypeRollIn is the zero-amount marker row that carries the
	// billing event's idempotency key.
	TransactionTypeRollIn TransactionType = "ROLL_IN"
	// TransactionTypeExpire records miles forfeited above the rollover cap.
	TransactionTypeExpire TransactionType = "EXPIRE"
	// TransactionTypeAddMonthly records the monthly plan grant.
	TransactionTypeAddMonthly TransactionType = "ADD_MONTHLY"
	// TransactionTypeDeductRequest records a request debit.
	TransactionTypeDeductRequest TransactionType = "DEDUCT_REQUEST"
	// TransactionTypeAdjust records manual and cancellation credits.
	TransactionTypeAdjust TransactionType = "ADJUST"
)

// LedgerEntry is one immutable signed balance change. Rows are appended and
// never updated or deleted; corrections are new ADJUST rows.
type LedgerEntry struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	WalletID         snowflake.ID    `gorm:"not null;index" json:"walletId"`
	Amount           int64           `gorm:"not null" json:"amount"`
	TransactionType  TransactionType `gorm:"type:text;not null" json:"transactionType"`
	IdempotencyKey   *string         `gorm:"type:text;uniqueIndex" json:"idempotencyKey,omitempty"`
	RelatedRequestID *snowflake.ID   `gorm:"index" json:"relatedRequestId,omitempty"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "service_miles_ledger" }
