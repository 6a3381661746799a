package repository

import (
	"context"
	"errors"
	"time"

	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	"github.com/Mayne0963/otw-chi-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository owns wallet row access. Mutating methods run inside the
// caller's transaction: wallet updates must commit together with their
// ledger rows.
type Repository interface {
	// GetOrCreateTx loads the user's wallet, creating an empty one on first
	// need, and locks the row where the dialect supports it.
	GetOrCreateTx(ctx context.Context, tx *gorm.DB, userID string) (*walletdomain.Wallet, error)

	// DebitTx decrements the balance only when it covers the amount.
	// Returns ErrInsufficientMiles when the conditional update matches no
	// row, leaving the wallet untouched.
	DebitTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, miles int64) error

	// CreditTx increments the balance of a limited wallet.
	CreditTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, miles int64) error

	// SetBalanceTx overwrites balance and rollover bank after allocation.
	SetBalanceTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, balance walletdomain.Balance, rolloverBank int64) error

	// GetByUser reads a wallet outside any transaction; nil when missing.
	GetByUser(ctx context.Context, userID string) (*walletdomain.Wallet, error)
}

type Impl struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func Provide(conn *gorm.DB, genID *snowflake.Node) Repository {
	return &Impl{db: conn, genID: genID}
}

func (r *Impl) GetOrCreateTx(ctx context.Context, tx *gorm.DB, userID string) (*walletdomain.Wallet, error) {
	if userID == "" {
		return nil, walletdomain.ErrWalletNotFound
	}

	wallet, err := r.findByUser(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO service_miles_wallets (id, user_id, balance_miles, rollover_bank_miles, created_at, updated_at)
		 VALUES (?, ?, 0, 0, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		r.genID.Generate(),
		userID,
		now,
		now,
	).Error; err != nil {
		return nil, err
	}

	wallet, err = r.findByUser(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, errors.New("wallet_create_failed")
	}
	return wallet, nil
}

func (r *Impl) DebitTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, miles int64) error {
	if miles <= 0 {
		return walletdomain.ErrInvalidAmount
	}

	// Losing concurrent writers match zero rows here instead of driving the
	// balance negative.
	result := tx.WithContext(ctx).Exec(
		`UPDATE service_miles_wallets
		 SET balance_miles = balance_miles - ?, updated_at = ?
		 WHERE id = ? AND balance_miles >= ?`,
		miles,
		time.Now().UTC(),
		walletID,
		miles,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return walletdomain.ErrInsufficientMiles
	}
	return nil
}

func (r *Impl) CreditTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, miles int64) error {
	if miles <= 0 {
		return walletdomain.ErrInvalidAmount
	}

	// Unlimited wallets keep the sentinel; arithmetic on it is a bug.
	result := tx.WithContext(ctx).Exec(
		`UPDATE service_miles_wallets
		 SET balance_miles = balance_miles + ?, updated_at = ?
		 WHERE id = ? AND balance_miles >= 0`,
		miles,
		time.Now().UTC(),
		walletID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return walletdomain.ErrWalletNotFound
	}
	return nil
}

func (r *Impl) SetBalanceTx(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, balance walletdomain.Balance, rolloverBank int64) error {
	if rolloverBank < 0 {
		rolloverBank = 0
	}
	result := tx.WithContext(ctx).Exec(
		`UPDATE service_miles_wallets
		 SET balance_miles = ?, rollover_bank_miles = ?, updated_at = ?
		 WHERE id = ?`,
		balance.Stored(),
		rolloverBank,
		time.Now().UTC(),
		walletID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return walletdomain.ErrWalletNotFound
	}
	return nil
}

func (r *Impl) GetByUser(ctx context.Context, userID string) (*walletdomain.Wallet, error) {
	return r.findByUser(ctx, r.db, userID, false)
}

func (r *Impl) findByUser(ctx context.Context, tx *gorm.DB, userID string, lock bool) (*walletdomain.Wallet, error) {
	query := `SELECT id, user_id, balance_miles, rollover_bank_miles, created_at, updated_at
	 FROM service_miles_wallets
	 WHERE user_id = ?`
	if lock {
		query += db.ForUpdate(tx)
	}

	var wallet walletdomain.Wallet
	if err := tx.WithContext(ctx).Raw(query, userID).Scan(&wallet).Error; err != nil {
		return nil, err
	}
	if wallet.ID == 0 {
		return nil, nil
	}
	return &wallet, nil
}
