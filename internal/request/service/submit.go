package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	auditdomain "github.com/Mayne0963/otw-chi-sub000/internal/audit/domain"
	eventsdomain "github.com/Mayne0963/otw-chi-sub000/internal/events/domain"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	membershipdomain "github.com/Mayne0963/otw-chi-sub000/internal/membership/domain"
	"github.com/Mayne0963/otw-chi-sub000/internal/quote"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errSubmitRaceLost aborts the transaction when a concurrent submission
// with the same idempotency key wins the insert. Never escapes Submit.
var errSubmitRaceLost = errors.New("submit_race_lost")

// Submit prices a job, debits the wallet when paying with miles, and
// creates the delivery request in one serializable transaction.
// Resubmitting with the same idempotency key returns the original request
// without a second debit.
func (s *Service) Submit(ctx context.Context, input requestdomain.SubmitInput) (*requestdomain.DeliveryRequest, error) {
	if input.UserID == "" {
		return nil, membershipdomain.ErrMembershipNotFound
	}
	if !input.ServiceType.Valid() {
		return nil, requestdomain.ErrInvalidServiceType
	}

	sub, err := s.memberships.GetByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, membershipdomain.ErrMembershipNotFound
	}
	if !sub.Active() {
		return nil, membershipdomain.ErrMembershipNotActive
	}

	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.AllowsServiceType(input.ServiceType) {
		return nil, requestdomain.ErrPlanNotAllowed
	}
	if input.CashHandling && !plan.CashAllowed {
		return nil, requestdomain.ErrPlanNotAllowed
	}
	if input.Priority && !plan.PriorityEligible() {
		return nil, requestdomain.ErrPlanNotAllowed
	}

	if input.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, s.db, input.UserID, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := s.clock.Now()
	scheduledStart := now
	if input.ScheduledStart != nil {
		scheduledStart = *input.ScheduledStart
	}
	priced := quote.Calculate(quote.Input{
		TravelMinutes:      input.TravelMinutes,
		WaitMinutes:        input.WaitMinutes,
		SitAndWait:         input.SitAndWait,
		NumberOfStops:      input.NumberOfStops,
		ReturnOrExchange:   input.ReturnOrExchange,
		CashHandling:       input.CashHandling,
		PeakHours:          input.PeakHours,
		ScheduledStart:     scheduledStart,
		Now:                now,
		AdvanceDiscountMax: plan.AdvanceDiscountMax,
	})
	breakdown, err := json.Marshal(priced.Breakdown)
	if err != nil {
		return nil, err
	}

	req := &requestdomain.DeliveryRequest{
		ID:                   s.genID.Generate(),
		UserID:               input.UserID,
		Status:               requestdomain.StatusRequested,
		ServiceType:          input.ServiceType,
		PickupAddress:        input.PickupAddress,
		DropoffAddress:       input.DropoffAddress,
		Notes:                input.Notes,
		Priority:             input.Priority,
		CashHandling:         input.CashHandling,
		ScheduledStart:       input.ScheduledStart,
		ServiceMilesBase:     priced.Base,
		ServiceMilesAdders:   priced.Adders,
		ServiceMilesDiscount: priced.Discount,
		ServiceMilesQuoted:   priced.Final,
		QuoteBreakdown:       breakdown,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		req.IdempotencyKey = &key
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet *walletdomain.Wallet
		if input.PayWithMiles {
			var err error
			wallet, err = s.wallets.GetOrCreateTx(ctx, tx, input.UserID)
			if err != nil {
				return err
			}

			paid := priced.Final
			if wallet.Balance().IsUnlimited() {
				// Unlimited wallets record the request at zero cost; the
				// ledger still gets a marker row for the history.
				paid = 0
			} else if err := s.wallets.DebitTx(ctx, tx, wallet.ID, priced.Final); err != nil {
				return err
			}
			req.ServiceMilesPaid = paid
			req.DeliveryFeePaid = true
		}

		if err := s.insertRequestTx(ctx, tx, req); err != nil {
			return err
		}

		if input.PayWithMiles {
			deductKey := fmt.Sprintf("%s:%s", req.ID, ledgerdomain.TransactionTypeDeductRequest)
			requestID := req.ID
			if err := s.ledger.AppendTx(ctx, tx, &ledgerdomain.LedgerEntry{
				WalletID:         wallet.ID,
				Amount:           -req.ServiceMilesPaid,
				TransactionType:  ledgerdomain.TransactionTypeDeductRequest,
				IdempotencyKey:   &deductKey,
				RelatedRequestID: &requestID,
				Description:      fmt.Sprintf("delivery request %s", req.ID),
			}); err != nil {
				return err
			}
		}

		if err := s.outbox.PublishTx(ctx, tx, eventsdomain.EventRequestSubmitted,
			fmt.Sprintf("%s:submitted", req.ID), map[string]any{
				"requestId":    req.ID.String(),
				"userId":       req.UserID,
				"serviceType":  req.ServiceType,
				"payWithMiles": input.PayWithMiles,
				"milesPaid":    req.ServiceMilesPaid,
			}); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, auditdomain.ActionRequestSubmit, "delivery_request", req.ID, map[string]any{
			"service_type":   string(req.ServiceType),
			"pay_with_miles": input.PayWithMiles,
			"miles_quoted":   priced.Final,
			"miles_paid":     req.ServiceMilesPaid,
		})
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if errors.Is(txErr, errSubmitRaceLost) {
		existing, err := s.findByIdempotencyKey(ctx, s.db, input.UserID, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, requestdomain.ErrRequestStateChanged
		}
		return existing, nil
	}
	if errors.Is(txErr, walletdomain.ErrInsufficientMiles) {
		s.metrics.IncInsufficient()
		return nil, txErr
	}
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.AddDebited(req.ServiceMilesPaid)
	s.log.Info("request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("user_id", req.UserID),
		zap.String("service_type", string(req.ServiceType)),
		zap.Int64("miles_paid", req.ServiceMilesPaid),
	)
	return req, nil
}

func (s *Service) insertRequestTx(ctx context.Context, tx *gorm.DB, req *requestdomain.DeliveryRequest) error {
	result := tx.WithContext(ctx).Exec(
		`INSERT INTO delivery_requests
		 (id, user_id, status, service_type, pickup_address, dropoff_address, notes,
		  priority, cash_handling, scheduled_start, service_miles_base, service_miles_adders,
		  service_miles_discount, service_miles_quoted, service_miles_paid,
		  quote_breakdown, delivery_fee_paid, idempotency_key, assigned_driver_id,
		  arrived_at, canceled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		req.ID, req.UserID, req.Status, req.ServiceType, req.PickupAddress,
		req.DropoffAddress, req.Notes, req.Priority, req.CashHandling,
		req.ScheduledStart, req.ServiceMilesBase, req.ServiceMilesAdders,
		req.ServiceMilesDiscount, req.ServiceMilesQuoted, req.ServiceMilesPaid,
		req.QuoteBreakdown, req.DeliveryFeePaid, req.IdempotencyKey,
		req.AssignedDriverID, req.ArrivedAt, req.CanceledAt, req.CreatedAt, req.UpdatedAt,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errSubmitRaceLost
	}
	return nil
}
