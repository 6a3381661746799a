package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAppendAndSum(t *testing.T) {
	svc := setupLedgerService(t)
	walletID := snowflake.ID(1001)

	grantKey := "inv_1:ADD_MONTHLY"
	if err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        walletID,
		Amount:          40,
		TransactionType: ledgerdomain.TransactionTypeAddMonthly,
		IdempotencyKey:  &grantKey,
		Description:     "monthly grant",
	}); err != nil {
		t.Fatalf("append grant: %v", err)
	}

	if err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        walletID,
		Amount:          -12,
		TransactionType: ledgerdomain.TransactionTypeDeductRequest,
		Description:     "delivery request",
	}); err != nil {
		t.Fatalf("append deduct: %v", err)
	}

	total, err := svc.SumForWallet(context.Background(), walletID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 28 {
		t.Fatalf("expected sum 28, got %d", total)
	}
}

func TestAppendDuplicateKey(t *testing.T) {
	svc := setupLedgerService(t)
	walletID := snowflake.ID(1002)
	key := "inv_2:ROLL_IN"

	if err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        walletID,
		Amount:          0,
		TransactionType: ledgerdomain.TransactionTypeRollIn,
		IdempotencyKey:  &key,
	}); err != nil {
		t.Fatalf("first append: %v", err)
	}

	err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        walletID,
		Amount:          0,
		TransactionType: ledgerdomain.TransactionTypeRollIn,
		IdempotencyKey:  &key,
	})
	if !errors.Is(err, ledgerdomain.ErrDuplicateIdempotencyKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	total, err := svc.SumForWallet(context.Background(), walletID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected sum 0, got %d", total)
	}
}

func TestAppendNilKeysNeverConflict(t *testing.T) {
	svc := setupLedgerService(t)
	walletID := snowflake.ID(1003)

	for i := 0; i < 3; i++ {
		if err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
			WalletID:        walletID,
			Amount:          -1,
			TransactionType: ledgerdomain.TransactionTypeDeductRequest,
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	total, err := svc.SumForWallet(context.Background(), walletID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != -3 {
		t.Fatalf("expected sum -3, got %d", total)
	}
}

func TestAppendRejectsInvalidEntries(t *testing.T) {
	svc := setupLedgerService(t)

	err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        1004,
		Amount:          -5,
		TransactionType: ledgerdomain.TransactionTypeAddMonthly,
	})
	if !errors.Is(err, ledgerdomain.ErrInvalidEntryAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}

	err = svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
		WalletID:        1004,
		Amount:          0,
		TransactionType: ledgerdomain.TransactionTypeRollIn,
	})
	if !errors.Is(err, ledgerdomain.ErrMissingIdempotencyKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestListForWalletNewestFirst(t *testing.T) {
	svc := setupLedgerService(t)
	walletID := snowflake.ID(1005)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("inv_list_%d:ADD_MONTHLY", i)
		if err := svc.AppendTx(context.Background(), nil, &ledgerdomain.LedgerEntry{
			WalletID:        walletID,
			Amount:          int64(i + 1),
			TransactionType: ledgerdomain.TransactionTypeAddMonthly,
			IdempotencyKey:  &key,
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := svc.ListForWallet(context.Background(), walletID, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Amount != 5 {
		t.Fatalf("expected newest entry first, got amount %d", entries[0].Amount)
	}
}

func setupLedgerService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS service_miles_ledger (
			id BIGINT PRIMARY KEY,
			wallet_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			transaction_type TEXT NOT NULL,
			idempotency_key TEXT UNIQUE,
			related_request_id BIGINT,
			description TEXT,
			created_at DATETIME NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create service_miles_ledger: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
	}
}
