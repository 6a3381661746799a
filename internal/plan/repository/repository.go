package repository

import (
	"context"
	"time"

	"github.com/Mayne0963/otw-chi-sub000/internal/cache"
	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const planCacheTTL = 30 * time.Second

// Repository reads plan reference data. Plans are seeded and edited out of
// band; lookups on the submission path go through a short TTL cache.
type Repository interface {
	GetByID(ctx context.Context, planID snowflake.ID) (*plandomain.MembershipPlan, error)
	GetByName(ctx context.Context, name string) (*plandomain.MembershipPlan, error)
	List(ctx context.Context) ([]plandomain.MembershipPlan, error)
}

type Impl struct {
	db   *gorm.DB
	byID *cache.TTLCache[snowflake.ID, *plandomain.MembershipPlan]
}

func Provide(conn *gorm.DB) Repository {
	return &Impl{
		db:   conn,
		byID: cache.NewTTLCache[snowflake.ID, *plandomain.MembershipPlan](),
	}
}

func (r *Impl) GetByID(ctx context.Context, planID snowflake.ID) (*plandomain.MembershipPlan, error) {
	if planID == 0 {
		return nil, plandomain.ErrPlanNotFound
	}
	if plan, ok := r.byID.Get(planID); ok {
		return plan, nil
	}

	var plan plandomain.MembershipPlan
	err := r.db.WithContext(ctx).
		Where("id = ?", planID).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, plandomain.ErrPlanNotFound
		}
		return nil, err
	}

	r.byID.Set(planID, &plan, planCacheTTL)
	return &plan, nil
}

func (r *Impl) GetByName(ctx context.Context, name string) (*plandomain.MembershipPlan, error) {
	if name == "" {
		return nil, plandomain.ErrPlanNotFound
	}
	var plan plandomain.MembershipPlan
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, plandomain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *Impl) List(ctx context.Context) ([]plandomain.MembershipPlan, error) {
	var plans []plandomain.MembershipPlan
	if err := r.db.WithContext(ctx).Order("price_cents ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
