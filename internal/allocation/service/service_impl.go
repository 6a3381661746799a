package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	allocationdomain "github.com/Mayne0963/otw-chi-sub000/internal/allocation/domain"
	auditdomain "github.com/Mayne0963/otw-chi-sub000/internal/audit/domain"
	eventsdomain "github.com/Mayne0963/otw-chi-sub000/internal/events/domain"
	eventsservice "github.com/Mayne0963/otw-chi-sub000/internal/events/service"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	membershipdomain "github.com/Mayne0963/otw-chi-sub000/internal/membership/domain"
	membershiprepo "github.com/Mayne0963/otw-chi-sub000/internal/membership/repository"
	"github.com/Mayne0963/otw-chi-sub000/internal/observability/metrics"
	planrepo "github.com/Mayne0963/otw-chi-sub000/internal/plan/repository"
	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	walletrepo "github.com/Mayne0963/otw-chi-sub000/internal/wallet/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errRaceLost aborts the transaction when a concurrent allocation won the
// marker insert. Never escapes Allocate.
var errRaceLost = errors.New("allocation_race_lost")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Plans       planrepo.Repository
	Memberships membershiprepo.Repository
	Wallets     walletrepo.Repository
	Ledger      ledgerdomain.Service
	Outbox      eventsservice.Outbox
	Audit       auditdomain.Recorder
	Metrics     *metrics.MilesMetrics
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	plans       planrepo.Repository
	memberships membershiprepo.Repository
	wallets     walletrepo.Repository
	ledger      ledgerdomain.Service
	outbox      eventsservice.Outbox
	audit       auditdomain.Recorder
	metrics     *metrics.MilesMetrics
}

func NewService(p Params) allocationdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("allocation.service"),
		plans:       p.Plans,
		memberships: p.Memberships,
		wallets:     p.Wallets,
		ledger:      p.Ledger,
		outbox:      p.Outbox,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

// Allocate applies one paid invoice exactly once. The ROLL_IN marker row
// carries the invoice's idempotency key; everything else commits or rolls
// back with it.
func (s *Service) Allocate(ctx context.Context, event allocationdomain.BillingEvent) (*allocationdomain.Result, error) {
	if event.InvoiceID == "" || event.UserID == "" || event.PlanName == "" {
		return nil, allocationdomain.ErrInvalidEvent
	}

	plan, err := s.plans.GetByName(ctx, event.PlanName)
	if err != nil {
		return nil, err
	}

	grant := walletdomain.Limited(plan.MonthlyServiceMiles)
	if plan.MonthlyServiceMiles == walletdomain.UnlimitedSentinel {
		grant = walletdomain.Unlimited()
	}

	rollInKey := fmt.Sprintf("%s:%s", event.InvoiceID, ledgerdomain.TransactionTypeRollIn)

	var result *allocationdomain.Result
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.memberships.UpsertTx(ctx, tx, event.UserID, plan.ID, membershipdomain.MembershipStatusActive, event.PeriodEnd); err != nil {
			return err
		}

		wallet, err := s.wallets.GetOrCreateTx(ctx, tx, event.UserID)
		if err != nil {
			return err
		}

		processed, err := s.markerExists(ctx, tx, rollInKey)
		if err != nil {
			return err
		}
		if processed {
			result = resultFor(allocationdomain.OutcomeAlreadyProcessed, wallet.Balance(), wallet.RolloverBankMiles, 0, 0)
			return nil
		}

		err = s.ledger.AppendTx(ctx, tx, &ledgerdomain.LedgerEntry{
			WalletID:        wallet.ID,
			Amount:          0,
			TransactionType: ledgerdomain.TransactionTypeRollIn,
			IdempotencyKey:  &rollInKey,
			Description:     fmt.Sprintf("rollover for invoice %s", event.InvoiceID),
		})
		if errors.Is(err, ledgerdomain.ErrDuplicateIdempotencyKey) {
			return errRaceLost
		}
		if err != nil {
			return err
		}

		rollover := walletdomain.Rollover(wallet.Balance(), grant, plan.RolloverCapMiles)

		if rollover.ExpiredMiles > 0 {
			expireKey := fmt.Sprintf("%s:%s", event.InvoiceID, ledgerdomain.TransactionTypeExpire)
			if err := s.ledger.AppendTx(ctx, tx, &ledgerdomain.LedgerEntry{
				WalletID:        wallet.ID,
				Amount:          -rollover.ExpiredMiles,
				TransactionType: ledgerdomain.TransactionTypeExpire,
				IdempotencyKey:  &expireKey,
				Description:     fmt.Sprintf("miles above rollover cap for invoice %s", event.InvoiceID),
			}); err != nil {
				return err
			}
		}

		if !grant.IsUnlimited() && grant.Miles() > 0 {
			grantKey := fmt.Sprintf("%s:%s", event.InvoiceID, ledgerdomain.TransactionTypeAddMonthly)
			if err := s.ledger.AppendTx(ctx, tx, &ledgerdomain.LedgerEntry{
				WalletID:        wallet.ID,
				Amount:          grant.Miles(),
				TransactionType: ledgerdomain.TransactionTypeAddMonthly,
				IdempotencyKey:  &grantKey,
				Description:     fmt.Sprintf("monthly grant for invoice %s", event.InvoiceID),
			}); err != nil {
				return err
			}
		}

		if err := s.wallets.SetBalanceTx(ctx, tx, wallet.ID, rollover.NewBalance, rollover.RolloverBank); err != nil {
			return err
		}

		if err := s.publishTx(ctx, tx, event, grant, rollover); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, auditdomain.ActionMilesAllocated, "wallet", wallet.ID, map[string]any{
			"invoice_id":    event.InvoiceID,
			"plan":          plan.Name,
			"granted_miles": grant.Miles(),
			"expired_miles": rollover.ExpiredMiles,
		})

		result = resultFor(allocationdomain.OutcomeSuccess, rollover.NewBalance, rollover.RolloverBank, grant.Miles(), rollover.ExpiredMiles)
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if errors.Is(txErr, errRaceLost) {
		s.metrics.IncAllocationRace()
		s.log.Warn("allocation lost marker race",
			zap.String("invoice_id", event.InvoiceID),
			zap.String("user_id", event.UserID),
		)
		return &allocationdomain.Result{Outcome: allocationdomain.OutcomeRaceDetected}, nil
	}
	if txErr != nil {
		return nil, txErr
	}

	if result.Outcome == allocationdomain.OutcomeSuccess {
		s.metrics.AddGranted(result.GrantedMiles)
		s.metrics.AddExpired(result.ExpiredMiles)
		s.log.Info("miles allocated",
			zap.String("invoice_id", event.InvoiceID),
			zap.String("user_id", event.UserID),
			zap.String("plan", plan.Name),
			zap.Int64("granted_miles", result.GrantedMiles),
			zap.Int64("expired_miles", result.ExpiredMiles),
		)
	}
	return result, nil
}

func (s *Service) markerExists(ctx context.Context, tx *gorm.DB, key string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM service_miles_ledger WHERE idempotency_key = ?`,
		key,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) publishTx(ctx context.Context, tx *gorm.DB, event allocationdomain.BillingEvent, grant walletdomain.Balance, rollover walletdomain.RolloverResult) error {
	grantedKey := fmt.Sprintf("%s:granted", event.InvoiceID)
	payload := map[string]any{
		"invoiceId":    event.InvoiceID,
		"userId":       event.UserID,
		"grantedMiles": grant.Miles(),
		"unlimited":    grant.IsUnlimited(),
		"rolloverBank": rollover.RolloverBank,
	}
	if err := s.outbox.PublishTx(ctx, tx, eventsdomain.EventMilesGranted, grantedKey, payload); err != nil {
		return err
	}

	if rollover.ExpiredMiles > 0 {
		expiredKey := fmt.Sprintf("%s:expired", event.InvoiceID)
		return s.outbox.PublishTx(ctx, tx, eventsdomain.EventMilesExpired, expiredKey, map[string]any{
			"invoiceId":    event.InvoiceID,
			"userId":       event.UserID,
			"expiredMiles": rollover.ExpiredMiles,
		})
	}
	return nil
}

func resultFor(outcome allocationdomain.Outcome, balance walletdomain.Balance, rolloverBank, granted, expired int64) *allocationdomain.Result {
	return &allocationdomain.Result{
		Outcome:      outcome,
		GrantedMiles: granted,
		ExpiredMiles: expired,
		RolloverBank: rolloverBank,
		NewBalance:   balance.Miles(),
		Unlimited:    balance.IsUnlimited(),
	}
}
