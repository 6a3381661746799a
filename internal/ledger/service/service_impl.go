package service

import (
	"context"
	"time"

	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

func (s *Service) AppendTx(ctx context.Context, tx *gorm.DB, entry *ledgerdomain.LedgerEntry) error {
	if tx == nil {
		tx = s.db
	}
	if err := ledgerdomain.ValidateEntry(entry); err != nil {
		return err
	}
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// The unique constraint on idempotency_key is the duplicate detector:
	// a losing concurrent writer inserts zero rows instead of a second
	// credit. NULL keys never conflict.
	result := tx.WithContext(ctx).Exec(
		`INSERT INTO service_miles_ledger
		 (id, wallet_id, amount, transaction_type, idempotency_key, related_request_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (idempotency_key) DO NOTHING`,
		entry.ID,
		entry.WalletID,
		entry.Amount,
		entry.TransactionType,
		entry.IdempotencyKey,
		entry.RelatedRequestID,
		entry.Description,
		entry.CreatedAt,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	return nil
}

func (s *Service) SumForWallet(ctx context.Context, walletID snowflake.ID) (int64, error) {
	if walletID == 0 {
		return 0, ledgerdomain.ErrInvalidWallet
	}
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM service_miles_ledger
		 WHERE wallet_id = ?`,
		walletID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) ListForWallet(ctx context.Context, walletID snowflake.ID, limit int) ([]ledgerdomain.LedgerEntry, error) {
	if walletID == 0 {
		return nil, ledgerdomain.ErrInvalidWallet
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []ledgerdomain.LedgerEntry
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, wallet_id, amount, transaction_type, idempotency_key, related_request_id, description, created_at
		 FROM service_miles_ledger
		 WHERE wallet_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		walletID,
		limit,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
