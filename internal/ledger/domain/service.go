package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// LedgerService is the append-only ledger writer. Append runs inside the
// caller's transaction so wallet updates and ledger rows commit together.
type LedgerService interface {
	// AppendTx inserts one entry. A duplicate idempotency key surfaces as
	// ErrDuplicateIdempotencyKey without aborting the surrounding tx driver
	// state; the caller decides whether to roll back.
	AppendTx(ctx context.Context, tx *gorm.DB, entry *LedgerEntry) error

	// SumForWallet replays the ledger for reconciliation checks.
	SumForWallet(ctx context.Context, walletID snowflake.ID) (int64, error)

	// ListForWallet returns the most recent entries, newest first.
	ListForWallet(ctx context.Context, walletID snowflake.ID, limit int) ([]LedgerEntry, error)
}

// Service is the package alias for LedgerService.
type Service = LedgerService

var (
	ErrInvalidEntry            = errors.New("invalid_ledger_entry")
	ErrInvalidWallet           = errors.New("invalid_wallet")
	ErrInvalidEntryAmount      = errors.New("invalid_entry_amount")
	ErrInvalidTransactionType  = errors.New("invalid_transaction_type")
	ErrMissingIdempotencyKey   = errors.New("missing_idempotency_key")
	ErrDuplicateIdempotencyKey = errors.New("duplicate_idempotency_key")
)
