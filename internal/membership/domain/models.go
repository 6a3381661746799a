package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MembershipStatus mirrors the billing provider's subscription state.
type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "ACTIVE"
	MembershipStatusPastDue  MembershipStatus = "PAST_DUE"
	MembershipStatusCanceled MembershipStatus = "CANCELED"
)

// MembershipSubscription links a user to a plan for the current billing
// period. One row per user; allocation upserts it on every renewal event.
type MembershipSubscription struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	UserID           string           `gorm:"type:text;not null;uniqueIndex" json:"userId"`
	PlanID           snowflake.ID     `gorm:"not null;index" json:"planId"`
	Status           MembershipStatus `gorm:"type:text;not null" json:"status"`
	CurrentPeriodEnd *time.Time       `gorm:"column:current_period_end" json:"currentPeriodEnd,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (MembershipSubscription) TableName() string { return "membership_subscriptions" }

// Active reports whether the membership currently gates requests open.
func (m *MembershipSubscription) Active() bool {
	return m != nil && m.Status == MembershipStatusActive
}

var (
	ErrMembershipNotFound  = errors.New("membership_not_found")
	ErrMembershipNotActive = errors.New("membership_not_active")
)
