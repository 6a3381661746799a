package seed

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/Mayne0963/otw-chi-sub000/internal/plan/domain"
	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type planSeed struct {
	name                string
	priceCents          int64
	monthlyServiceMiles int64
	rolloverCapMiles    int64
	advanceDiscountMax  int64
	priorityLevel       int
	cashAllowed         bool
	allowedServiceTypes []plandomain.ServiceType
}

var defaultPlans = []planSeed{
	{
		name:                "Broski Basic",
		priceCents:          2900,
		monthlyServiceMiles: 40,
		rolloverCapMiles:    20,
		advanceDiscountMax:  5,
		allowedServiceTypes: []plandomain.ServiceType{
			plandomain.ServiceTypeFood,
			plandomain.ServiceTypeStore,
		},
	},
	{
		name:                "Broski+",
		priceCents:          5900,
		monthlyServiceMiles: 120,
		rolloverCapMiles:    40,
		advanceDiscountMax:  15,
		priorityLevel:       1,
		cashAllowed:         true,
		allowedServiceTypes: []plandomain.ServiceType{
			plandomain.ServiceTypeFood,
			plandomain.ServiceTypeStore,
			plandomain.ServiceTypeFragile,
		},
	},
	{
		name:                "Executive Broski",
		priceCents:          14900,
		monthlyServiceMiles: walletdomain.UnlimitedSentinel,
		priorityLevel:       2,
		cashAllowed:         true,
	},
}

// EnsureDefaultPlans seeds the membership tiers for startup bootstrap.
// Existing plans are left untouched so operator edits survive restarts.
func EnsureDefaultPlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, node, plan); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, plan planSeed) error {
	types, err := plandomain.EncodeServiceTypes(plan.allowedServiceTypes)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Exec(
		`INSERT INTO membership_plans
		 (id, name, price_cents, monthly_service_miles, rollover_cap_miles, advance_discount_max,
		  priority_level, cash_allowed, allowed_service_types, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		node.Generate(),
		plan.name,
		plan.priceCents,
		plan.monthlyServiceMiles,
		plan.rolloverCapMiles,
		plan.advanceDiscountMax,
		plan.priorityLevel,
		plan.cashAllowed,
		types,
		now,
		now,
	).Error
}
