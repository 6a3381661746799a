package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ServiceType enumerates the jobs a request can ask for.
type ServiceType string

const (
	ServiceTypeFood      ServiceType = "FOOD"
	ServiceTypeStore     ServiceType = "STORE"
	ServiceTypeFragile   ServiceType = "FRAGILE"
	ServiceTypeConcierge ServiceType = "CONCIERGE"
)

// Valid reports whether the service type is a known value.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeFood, ServiceTypeStore, ServiceTypeFragile, ServiceTypeConcierge:
		return true
	default:
		return false
	}
}

// MembershipPlan is reference data: the entitlements a tier grants. Read by
// the ledger core, never mutated by it.
type MembershipPlan struct {
	ID                  snowflake.ID   `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"type:text;not null;uniqueIndex" json:"name"`
	PriceCents          int64          `gorm:"not null;default:0" json:"priceCents"`
	MonthlyServiceMiles int64          `gorm:"not null;default:0" json:"monthlyServiceMiles"`
	RolloverCapMiles    int64          `gorm:"not null;default:0" json:"rolloverCapMiles"`
	AdvanceDiscountMax  int64          `gorm:"not null;default:0" json:"advanceDiscountMax"`
	PriorityLevel       int            `gorm:"not null;default:0" json:"priorityLevel"`
	CashAllowed         bool           `gorm:"not null;default:false" json:"cashAllowed"`
	AllowedServiceTypes datatypes.JSON `gorm:"type:text" json:"allowedServiceTypes"`
	CreatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (MembershipPlan) TableName() string { return "membership_plans" }

// AllowsServiceType reports whether the plan permits the service type.
// An empty list means every type is allowed.
func (p *MembershipPlan) AllowsServiceType(serviceType ServiceType) bool {
	types, err := p.DecodeAllowedServiceTypes()
	if err != nil || len(types) == 0 {
		return true
	}
	for _, allowed := range types {
		if allowed == serviceType {
			return true
		}
	}
	return false
}

// DecodeAllowedServiceTypes parses the stored JSON list.
func (p *MembershipPlan) DecodeAllowedServiceTypes() ([]ServiceType, error) {
	if len(p.AllowedServiceTypes) == 0 {
		return nil, nil
	}
	var types []ServiceType
	if err := decodeJSON(p.AllowedServiceTypes, &types); err != nil {
		return nil, ErrInvalidAllowedServiceTypes
	}
	return types, nil
}

// PriorityEligible reports whether the plan may request a locked driver.
func (p *MembershipPlan) PriorityEligible() bool {
	return p.PriorityLevel > 0
}

var (
	ErrPlanNotFound               = errors.New("plan_not_found")
	ErrInvalidAllowedServiceTypes = errors.New("invalid_allowed_service_types")
)
