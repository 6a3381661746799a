package repository

import (
	"context"
	"time"

	membershipdomain "github.com/Mayne0963/otw-chi-sub000/internal/membership/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository owns membership subscription rows. UpsertTx runs inside the
// allocation transaction; reads happen on the request path.
type Repository interface {
	// UpsertTx creates or refreshes the user's single subscription row.
	UpsertTx(ctx context.Context, tx *gorm.DB, userID string, planID snowflake.ID, status membershipdomain.MembershipStatus, periodEnd *time.Time) error

	// GetByUser returns the user's subscription; nil when none exists.
	GetByUser(ctx context.Context, userID string) (*membershipdomain.MembershipSubscription, error)
}

type Impl struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func Provide(conn *gorm.DB, genID *snowflake.Node) Repository {
	return &Impl{db: conn, genID: genID}
}

func (r *Impl) UpsertTx(ctx context.Context, tx *gorm.DB, userID string, planID snowflake.ID, status membershipdomain.MembershipStatus, periodEnd *time.Time) error {
	if userID == "" || planID == 0 {
		return membershipdomain.ErrMembershipNotFound
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Exec(
		`INSERT INTO membership_subscriptions
		 (id, user_id, plan_id, status, current_period_end, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   plan_id = excluded.plan_id,
		   status = excluded.status,
		   current_period_end = excluded.current_period_end,
		   updated_at = excluded.updated_at`,
		r.genID.Generate(),
		userID,
		planID,
		status,
		periodEnd,
		now,
		now,
	).Error
}

func (r *Impl) GetByUser(ctx context.Context, userID string) (*membershipdomain.MembershipSubscription, error) {
	if userID == "" {
		return nil, membershipdomain.ErrMembershipNotFound
	}
	var sub membershipdomain.MembershipSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
