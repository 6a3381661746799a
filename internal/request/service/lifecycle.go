package service

import (
	"context"

	requestdomain "github.com/Mayne0963/otw-chi-sub000/internal/request/domain"
	"github.com/bwmarrin/snowflake"
)

// Assign hands the request to a driver. Only unassigned requests move.
func (s *Service) Assign(ctx context.Context, requestID snowflake.ID, driverID string) error {
	if requestID == 0 || driverID == "" {
		return requestdomain.ErrRequestNotFound
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE delivery_requests
		 SET status = ?, assigned_driver_id = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		requestdomain.StatusAssigned,
		driverID,
		s.clock.Now(),
		requestID,
		requestdomain.StatusRequested,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return requestdomain.ErrRequestStateChanged
	}
	return nil
}

// MarkArrived records the driver reaching the pickup, which moves the
// cancellation fee to its top tier.
func (s *Service) MarkArrived(ctx context.Context, requestID snowflake.ID) error {
	if requestID == 0 {
		return requestdomain.ErrRequestNotFound
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE delivery_requests
		 SET arrived_at = ?, status = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND arrived_at IS NULL`,
		s.clock.Now(),
		requestdomain.StatusPickedUp,
		s.clock.Now(),
		requestID,
		requestdomain.StatusAssigned,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return requestdomain.ErrRequestStateChanged
	}
	return nil
}

// MarkDelivered closes the request. Delivered requests are immutable from
// here on.
func (s *Service) MarkDelivered(ctx context.Context, requestID snowflake.ID) error {
	if requestID == 0 {
		return requestdomain.ErrRequestNotFound
	}
	result := s.db.WithContext(ctx).Exec(
		`UPDATE delivery_requests
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?, ?)`,
		requestdomain.StatusDelivered,
		s.clock.Now(),
		requestID,
		requestdomain.StatusAssigned,
		requestdomain.StatusPickedUp,
		requestdomain.StatusEnRoute,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return requestdomain.ErrRequestStateChanged
	}
	return nil
}
