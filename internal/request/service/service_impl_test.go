package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	auditrepo "github.com/Mayne0963/otw-chi-sub000/internal/audit/repository"
	auditservice "github.com/Mayne0963/otw-chi-sub000/internal/audit/service"
	"github.com/Mayne0963/otw-chi-sub000/internal/clock"
	eventsservice "github.com/Mayne0963/otw-chi-sub000/internal/events/service"
	ledgerservice "github.com/Mayne0963/otw-chi-sub000/internal/ledger/service"
	membershipdomain "github.com/Mayne0963/otw-chi-sub000/internal/membership/domain"
	membershiprepo "github.com/Mayne0963/otw-chi-sub000/internal/membership/repository"
	"github.com/Mayne0963/otw-chi-sub000/internal/migration"
	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	planrepo "github.com/Mayne0963/otw-chi-sub000/internal/plan/repository"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	walletrepo "github.com/Mayne0963/otw-chi-sub000/internal/wallet/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type requestFixture struct {
	svc  requestdomain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func TestSubmitDebitsWallet(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski+", true, 1, nil)
	f.seedMembership(t, "user_debit", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_debit", 50)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_debit",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  true,
		TravelMinutes: 25,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.ServiceMilesPaid != 5 {
		t.Fatalf("expected 5 miles paid, got %d", req.ServiceMilesPaid)
	}
	if !req.DeliveryFeePaid {
		t.Fatal("delivery fee must be marked paid after the debit")
	}
	if f.walletBalance(t, "user_debit") != 45 {
		t.Fatalf("expected balance 45, got %d", f.walletBalance(t, "user_debit"))
	}
	if len(req.QuoteBreakdown) == 0 {
		t.Fatal("expected quote breakdown snapshot")
	}

	var feePaid bool
	if err := f.db.Raw(
		`SELECT delivery_fee_paid FROM delivery_requests WHERE id = ?`, req.ID,
	).Scan(&feePaid).Error; err != nil {
		t.Fatalf("read fee flag: %v", err)
	}
	if !feePaid {
		t.Fatal("delivery_fee_paid must persist as true")
	}
}

func TestSubmitWithoutMilesPayment(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_nomiles", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_nomiles", 50)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_nomiles",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  false,
		TravelMinutes: 25,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.ServiceMilesPaid != 0 {
		t.Fatalf("no miles payment expected, got %d paid", req.ServiceMilesPaid)
	}
	if req.DeliveryFeePaid {
		t.Fatal("delivery fee must stay unpaid without a miles debit")
	}
	if req.ServiceMilesQuoted != 5 {
		t.Fatalf("quote still computed, got %d", req.ServiceMilesQuoted)
	}
	if f.walletBalance(t, "user_nomiles") != 50 {
		t.Fatalf("wallet must be untouched, got %d", f.walletBalance(t, "user_nomiles"))
	}

	var entries int64
	if err := f.db.Raw(`SELECT COUNT(1) FROM service_miles_ledger`).Scan(&entries).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if entries != 0 {
		t.Fatalf("expected no ledger rows, got %d", entries)
	}
}

func TestSubmitStoresQuoteColumns(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_columns", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_columns", 100)

	start := testNow.Add(72 * time.Hour)
	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:         "user_columns",
		ServiceType:    plandomain.ServiceTypeFood,
		PayWithMiles:   true,
		TravelMinutes:  140, // 28 base miles
		ScheduledStart: &start,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.ServiceMilesBase != 28 {
		t.Fatalf("base = %d, want 28", req.ServiceMilesBase)
	}
	if req.ServiceMilesAdders != 0 {
		t.Fatalf("adders = %d, want 0", req.ServiceMilesAdders)
	}
	if req.ServiceMilesDiscount != 5 {
		t.Fatalf("discount = %d, want 5 (20%% of 28, floored)", req.ServiceMilesDiscount)
	}
	if req.ServiceMilesQuoted != 23 {
		t.Fatalf("quoted = %d, want 23", req.ServiceMilesQuoted)
	}

	var stored struct {
		Base     int64
		Adders   int64
		Discount int64
	}
	if err := f.db.Raw(
		`SELECT service_miles_base AS base, service_miles_adders AS adders,
		        service_miles_discount AS discount
		 FROM delivery_requests WHERE id = ?`, req.ID,
	).Scan(&stored).Error; err != nil {
		t.Fatalf("read quote columns: %v", err)
	}
	if stored.Base != 28 || stored.Adders != 0 || stored.Discount != 5 {
		t.Fatalf("stored columns = %+v, want 28/0/5", stored)
	}
}

func TestSubmitInsufficientMiles(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_broke", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_broke", 3)

	_, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_broke",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  true,
		TravelMinutes: 140, // 28 miles
	})
	if !errors.Is(err, walletdomain.ErrInsufficientMiles) {
		t.Fatalf("expected insufficient miles, got %v", err)
	}
	if f.walletBalance(t, "user_broke") != 3 {
		t.Fatalf("failed submit must not touch the balance, got %d", f.walletBalance(t, "user_broke"))
	}

	var requests int64
	if err := f.db.Raw(`SELECT COUNT(1) FROM delivery_requests`).Scan(&requests).Error; err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected no request rows, got %d", requests)
	}
}

func TestSubmitIdempotentResubmit(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_retry", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_retry", 40)

	input := requestdomain.SubmitInput{
		UserID:         "user_retry",
		ServiceType:    plandomain.ServiceTypeStore,
		PayWithMiles:   true,
		TravelMinutes:  25,
		IdempotencyKey: "client-key-1",
	}

	first, err := f.svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := f.svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same request, got %s and %s", first.ID, second.ID)
	}
	if f.walletBalance(t, "user_retry") != 35 {
		t.Fatalf("expected single debit, balance %d", f.walletBalance(t, "user_retry"))
	}
}

func TestSubmitPlanGates(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, []plandomain.ServiceType{
		plandomain.ServiceTypeFood,
	})
	f.seedMembership(t, "user_gated", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_gated", 100)

	tests := []struct {
		name  string
		input requestdomain.SubmitInput
	}{
		{"service type outside plan", requestdomain.SubmitInput{
			UserID:      "user_gated",
			ServiceType: plandomain.ServiceTypeFragile,
		}},
		{"cash on cashless plan", requestdomain.SubmitInput{
			UserID:       "user_gated",
			ServiceType:  plandomain.ServiceTypeFood,
			CashHandling: true,
		}},
		{"priority on basic plan", requestdomain.SubmitInput{
			UserID:      "user_gated",
			ServiceType: plandomain.ServiceTypeFood,
			Priority:    true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.input)
			if !errors.Is(err, requestdomain.ErrPlanNotAllowed) {
				t.Fatalf("expected plan not allowed, got %v", err)
			}
		})
	}
}

func TestSubmitRequiresActiveMembership(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_pastdue", planID, membershipdomain.MembershipStatusPastDue)

	_, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:      "user_pastdue",
		ServiceType: plandomain.ServiceTypeFood,
	})
	if !errors.Is(err, membershipdomain.ErrMembershipNotActive) {
		t.Fatalf("expected membership not active, got %v", err)
	}

	_, err = f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:      "user_without_membership",
		ServiceType: plandomain.ServiceTypeFood,
	})
	if !errors.Is(err, membershipdomain.ErrMembershipNotFound) {
		t.Fatalf("expected membership not found, got %v", err)
	}
}

func TestSubmitUnlimitedWallet(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Executive Broski", true, 2, nil)
	f.seedMembership(t, "user_exec", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_exec", walletdomain.UnlimitedSentinel)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_exec",
		ServiceType:   plandomain.ServiceTypeConcierge,
		PayWithMiles:  true,
		TravelMinutes: 140,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.ServiceMilesPaid != 0 {
		t.Fatalf("unlimited wallets pay 0, got %d", req.ServiceMilesPaid)
	}
	if !req.DeliveryFeePaid {
		t.Fatal("unlimited coverage still settles the delivery fee")
	}
	if req.ServiceMilesQuoted != 28 {
		t.Fatalf("quote still computed, got %d", req.ServiceMilesQuoted)
	}
	if f.walletBalance(t, "user_exec") != walletdomain.UnlimitedSentinel {
		t.Fatalf("sentinel must survive submission, got %d", f.walletBalance(t, "user_exec"))
	}
}

func TestCancelFeeTiers(t *testing.T) {
	tests := []struct {
		name       string
		progress   func(t *testing.T, f *requestFixture, id snowflake.ID)
		wantFee    int64
		wantRefund int64
	}{
		{
			name:       "unassigned full refund",
			progress:   func(t *testing.T, f *requestFixture, id snowflake.ID) {},
			wantFee:    0,
			wantRefund: 28,
		},
		{
			name: "assigned",
			progress: func(t *testing.T, f *requestFixture, id snowflake.ID) {
				if err := f.svc.Assign(context.Background(), id, "driver_1"); err != nil {
					t.Fatalf("assign: %v", err)
				}
			},
			wantFee:    5,
			wantRefund: 23,
		},
		{
			name: "driver arrived",
			progress: func(t *testing.T, f *requestFixture, id snowflake.ID) {
				if err := f.svc.Assign(context.Background(), id, "driver_1"); err != nil {
					t.Fatalf("assign: %v", err)
				}
				if err := f.svc.MarkArrived(context.Background(), id); err != nil {
					t.Fatalf("arrive: %v", err)
				}
			},
			wantFee:    15,
			wantRefund: 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRequestFixture(t)
			planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
			f.seedMembership(t, "user_cancel", planID, membershipdomain.MembershipStatusActive)
			f.seedWallet(t, "user_cancel", 30)

			req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
				UserID:        "user_cancel",
				ServiceType:   plandomain.ServiceTypeFood,
				PayWithMiles:  true,
				TravelMinutes: 140, // 28 miles
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			tt.progress(t, f, req.ID)

			result, err := f.svc.Cancel(context.Background(), "user_cancel", req.ID)
			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if result.FeeMiles != tt.wantFee {
				t.Fatalf("expected fee %d, got %d", tt.wantFee, result.FeeMiles)
			}
			if result.RefundMiles != tt.wantRefund {
				t.Fatalf("expected refund %d, got %d", tt.wantRefund, result.RefundMiles)
			}
			wantBalance := 30 - 28 + tt.wantRefund
			if got := f.walletBalance(t, "user_cancel"); got != wantBalance {
				t.Fatalf("expected balance %d, got %d", wantBalance, got)
			}
		})
	}
}

func TestCancelDeliveredRequest(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_done", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_done", 30)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_done",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  true,
		TravelMinutes: 25,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.svc.Assign(context.Background(), req.ID, "driver_1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := f.svc.MarkDelivered(context.Background(), req.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), "user_done", req.ID)
	if !errors.Is(err, requestdomain.ErrCompletedRequestsImmutable) {
		t.Fatalf("expected completed requests immutable, got %v", err)
	}
}

func TestCancelTwiceIsNoOp(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_twice", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_twice", 30)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_twice",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  true,
		TravelMinutes: 25,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	first, err := f.svc.Cancel(context.Background(), "user_twice", req.ID)
	if err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if first.AlreadyCanceled {
		t.Fatal("first cancel must perform the cancellation")
	}

	second, err := f.svc.Cancel(context.Background(), "user_twice", req.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !second.AlreadyCanceled {
		t.Fatal("second cancel must be a no-op")
	}
	if got := f.walletBalance(t, "user_twice"); got != 30 {
		t.Fatalf("expected full refund exactly once, balance %d", got)
	}
}

func TestCancelUnknownRequest(t *testing.T) {
	f := setupRequestFixture(t)

	_, err := f.svc.Cancel(context.Background(), "nobody", snowflake.ID(12345))
	if !errors.Is(err, requestdomain.ErrRequestNotFound) {
		t.Fatalf("expected request not found, got %v", err)
	}
}

func TestCancelAfterWalletTurnsUnlimited(t *testing.T) {
	f := setupRequestFixture(t)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_upgraded", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_upgraded", 30)

	req, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
		UserID:        "user_upgraded",
		ServiceType:   plandomain.ServiceTypeFood,
		PayWithMiles:  true,
		TravelMinutes: 140, // 28 miles
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Plan upgrade lands between submission and cancellation.
	if err := f.db.Exec(
		`UPDATE service_miles_wallets SET balance_miles = ? WHERE user_id = ?`,
		walletdomain.UnlimitedSentinel, "user_upgraded",
	).Error; err != nil {
		t.Fatalf("flip wallet unlimited: %v", err)
	}

	result, err := f.svc.Cancel(context.Background(), "user_upgraded", req.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != requestdomain.StatusCanceled {
		t.Fatalf("status = %s, want CANCELED", result.Status)
	}
	if got := f.walletBalance(t, "user_upgraded"); got != walletdomain.UnlimitedSentinel {
		t.Fatalf("sentinel must survive cancellation, got %d", got)
	}

	var adjustments int64
	if err := f.db.Raw(
		`SELECT COUNT(1) FROM service_miles_ledger WHERE transaction_type = 'ADJUST'`,
	).Scan(&adjustments).Error; err != nil {
		t.Fatalf("count adjustments: %v", err)
	}
	if adjustments != 0 {
		t.Fatalf("unlimited wallets take no adjustment rows, got %d", adjustments)
	}
}

func TestConcurrentSubmitsSingleDebit(t *testing.T) {
	dsn := fmt.Sprintf("file:%s/requests.db?_busy_timeout=5000&_txlock=immediate", t.TempDir())
	f := setupRequestFixtureDSN(t, dsn)
	planID := f.seedPlan(t, "Broski Basic", false, 0, nil)
	f.seedMembership(t, "user_race", planID, membershipdomain.MembershipStatusActive)
	f.seedWallet(t, "user_race", 28) // exactly one 140-minute job

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), requestdomain.SubmitInput{
				UserID:         "user_race",
				ServiceType:    plandomain.ServiceTypeFood,
				PayWithMiles:   true,
				TravelMinutes:  140,
				IdempotencyKey: fmt.Sprintf("race-key-%d", n),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, walletdomain.ErrInsufficientMiles):
			insufficient++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d insufficient, want exactly one of each", succeeded, insufficient)
	}
	if got := f.walletBalance(t, "user_race"); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func setupRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	return setupRequestFixtureDSN(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
}

func setupRequestFixtureDSN(t *testing.T, dsn string) *requestFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()

	svc := NewService(Params{
		DB:          db,
		Log:         log,
		Clock:       clock.Fixed(testNow),
		GenID:       node,
		Plans:       planrepo.Provide(db),
		Memberships: membershiprepo.Provide(db, node),
		Wallets:     walletrepo.Provide(db, node),
		Ledger: ledgerservice.NewService(ledgerservice.Params{
			DB:    db,
			Log:   log,
			GenID: node,
		}),
		Outbox: eventsservice.NewOutbox(eventsservice.Params{
			DB:    db,
			Log:   log,
			GenID: node,
		}),
		Audit: auditservice.NewService(auditservice.Params{
			DB:   db,
			Log:  log,
			Repo: auditrepo.Provide(node),
		}),
	})
	return &requestFixture{svc: svc, db: db, node: node}
}

func (f *requestFixture) seedPlan(t *testing.T, name string, cashAllowed bool, priorityLevel int, allowed []plandomain.ServiceType) snowflake.ID {
	t.Helper()
	types, err := plandomain.EncodeServiceTypes(allowed)
	if err != nil {
		t.Fatalf("encode service types: %v", err)
	}
	id := f.node.Generate()
	if err := f.db.Exec(
		`INSERT INTO membership_plans
		 (id, name, price_cents, monthly_service_miles, rollover_cap_miles, advance_discount_max,
		  priority_level, cash_allowed, allowed_service_types, created_at, updated_at)
		 VALUES (?, ?, 0, 40, 20, 0, ?, ?, ?, ?, ?)`,
		id, name, priorityLevel, cashAllowed, types, testNow, testNow,
	).Error; err != nil {
		t.Fatalf("seed plan %s: %v", name, err)
	}
	return id
}

func (f *requestFixture) seedMembership(t *testing.T, userID string, planID snowflake.ID, status membershipdomain.MembershipStatus) {
	t.Helper()
	if err := f.db.Exec(
		`INSERT INTO membership_subscriptions (id, user_id, plan_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), userID, planID, status, testNow, testNow,
	).Error; err != nil {
		t.Fatalf("seed membership %s: %v", userID, err)
	}
}

func (f *requestFixture) seedWallet(t *testing.T, userID string, balance int64) {
	t.Helper()
	if err := f.db.Exec(
		`INSERT INTO service_miles_wallets (id, user_id, balance_miles, rollover_bank_miles, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		f.node.Generate(), userID, balance, testNow, testNow,
	).Error; err != nil {
		t.Fatalf("seed wallet %s: %v", userID, err)
	}
}

func (f *requestFixture) walletBalance(t *testing.T, userID string) int64 {
	t.Helper()
	var balance int64
	if err := f.db.Raw(
		`SELECT balance_miles FROM service_miles_wallets WHERE user_id = ?`, userID,
	).Scan(&balance).Error; err != nil {
		t.Fatalf("read balance %s: %v", userID, err)
	}
	return balance
}
