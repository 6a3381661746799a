package service

import (
	"context"
	"database/sql"
	"fmt"

	auditdomain "github.com/Mayne0963/otw-chi-sub000/internal/audit/domain"
	eventsdomain "github.com/Mayne0963/otw-chi-sub000/internal/events/domain"
	ledgerdomain "github.com/Mayne0963/otw-chi-sub000/internal/ledger/domain"
	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cancel flips a request to CANCELED and refunds the miles paid net of the
// stage fee. Delivered requests are immutable; canceling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, userID string, requestID snowflake.ID) (*requestdomain.CancelResult, error) {
	var result *requestdomain.CancelResult
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.findByID(ctx, tx, userID, requestID)
		if err != nil {
			return err
		}
		if req.Status == requestdomain.StatusDelivered {
			return requestdomain.ErrCompletedRequestsImmutable
		}
		if req.Status == requestdomain.StatusCanceled {
			result = &requestdomain.CancelResult{
				RequestID:       req.ID,
				Status:          req.Status,
				AlreadyCanceled: true,
			}
			return nil
		}

		fee := req.CancellationFee()
		refund := req.ServiceMilesPaid - fee
		if refund < 0 {
			refund = 0
		}

		now := s.clock.Now()
		// Guarding on the observed status keeps a concurrent driver
		// transition from being silently overwritten.
		update := tx.WithContext(ctx).Exec(
			`UPDATE delivery_requests
			 SET status = ?, canceled_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			requestdomain.StatusCanceled,
			now,
			now,
			req.ID,
			req.Status,
		)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return requestdomain.ErrRequestStateChanged
		}

		if refund > 0 {
			if err := s.refundTx(ctx, tx, req, refund, fee); err != nil {
				return err
			}
		}

		if err := s.outbox.PublishTx(ctx, tx, eventsdomain.EventRequestCanceled,
			fmt.Sprintf("%s:canceled", req.ID), map[string]any{
				"requestId":   req.ID.String(),
				"userId":      req.UserID,
				"feeMiles":    fee,
				"refundMiles": refund,
			}); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, auditdomain.ActionRequestCancel, "delivery_request", req.ID, map[string]any{
			"fee_miles":    fee,
			"refund_miles": refund,
			"from_status":  string(req.Status),
		})

		result = &requestdomain.CancelResult{
			RequestID:   req.ID,
			Status:      requestdomain.StatusCanceled,
			FeeMiles:    fee,
			RefundMiles: refund,
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if txErr != nil {
		return nil, txErr
	}

	if !result.AlreadyCanceled {
		s.metrics.AddRefunded(result.RefundMiles)
		s.log.Info("request canceled",
			zap.String("request_id", requestID.String()),
			zap.String("user_id", userID),
			zap.Int64("fee_miles", result.FeeMiles),
			zap.Int64("refund_miles", result.RefundMiles),
		)
	}
	return result, nil
}

func (s *Service) refundTx(ctx context.Context, tx *gorm.DB, req *requestdomain.DeliveryRequest, refund, fee int64) error {
	wallet, err := s.wallets.GetOrCreateTx(ctx, tx, req.UserID)
	if err != nil {
		return err
	}
	// A wallet that went unlimited after paying gets neither the credit
	// nor an adjustment row; nothing moved.
	if wallet.Balance().IsUnlimited() {
		return nil
	}
	if err := s.wallets.CreditTx(ctx, tx, wallet.ID, refund); err != nil {
		return err
	}

	refundKey := fmt.Sprintf("%s:%s", req.ID, ledgerdomain.TransactionTypeAdjust)
	requestID := req.ID
	return s.ledger.AppendTx(ctx, tx, &ledgerdomain.LedgerEntry{
		WalletID:         wallet.ID,
		Amount:           refund,
		TransactionType:  ledgerdomain.TransactionTypeAdjust,
		IdempotencyKey:   &refundKey,
		RelatedRequestID: &requestID,
		Description:      fmt.Sprintf("cancellation refund for request %s (fee %d)", req.ID, fee),
	})
}
