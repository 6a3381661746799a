package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Wallet holds a customer's service-miles balance. One row per user,
// created lazily on first need and never deleted. BalanceMiles only changes
// inside a transaction that also appends matching ledger rows.
type Wallet struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID            string       `gorm:"type:text;not null;uniqueIndex" json:"userId"`
	BalanceMiles      int64        `gorm:"not null;default:0" json:"balanceMiles"`
	RolloverBankMiles int64        `gorm:"not null;default:0" json:"rolloverBankMiles"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (Wallet) TableName() string { return "service_miles_wallets" }

// Balance decodes the stored balance column.
func (w *Wallet) Balance() Balance {
	return FromStored(w.BalanceMiles)
}

// ReadModel is the wallet projection handed to the API layer.
type ReadModel struct {
	BalanceMiles      int64 `json:"balanceMiles"`
	RolloverBankMiles int64 `json:"rolloverBankMiles"`
	Unlimited         bool  `json:"unlimited"`
}

// Read builds the API projection for a wallet.
func (w *Wallet) Read() ReadModel {
	balance := w.Balance()
	return ReadModel{
		BalanceMiles:      balance.Miles(),
		RolloverBankMiles: w.RolloverBankMiles,
		Unlimited:         balance.IsUnlimited(),
	}
}
