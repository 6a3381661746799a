package domain

// RolloverResult describes how a balance carries into a new billing period.
type RolloverResult struct {
	// RolloverBank is the portion of the old balance that survives.
	// Zero when the result is unlimited.
	RolloverBank int64
	// ExpiredMiles is the portion forfeited above the rollover cap.
	ExpiredMiles int64
	// NewBalance is the balance after the monthly grant lands.
	NewBalance Balance
}

// Rollover computes the period transition for a wallet. Unlimited dominates:
// if either the current balance or the grant is unlimited, the new balance
// is unlimited and nothing expires. A negative rollover cap means uncapped
// carry-over.
func Rollover(current Balance, grant Balance, rolloverCapMiles int64) RolloverResult {
	if current.IsUnlimited() || grant.IsUnlimited() {
		return RolloverResult{NewBalance: Unlimited()}
	}

	balance := current.Miles()
	bank := balance
	if rolloverCapMiles >= 0 && bank > rolloverCapMiles {
		bank = rolloverCapMiles
	}
	expired := balance - bank

	return RolloverResult{
		RolloverBank: bank,
		ExpiredMiles: expired,
		NewBalance:   Limited(bank + grant.Miles()),
	}
}
