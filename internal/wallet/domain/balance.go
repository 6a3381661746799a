package domain

// UnlimitedSentinel is the stored representation of an unmetered balance.
// The tagged Balance type is the in-process representation; the sentinel
// appears only at the storage boundary.
const UnlimitedSentinel int64 = -1

// Balance is a wallet balance: either a finite number of miles or unlimited.
type Balance struct {
	unlimited bool
	miles     int64
}

// Limited returns a finite balance. Negative inputs floor at zero.
func Limited(miles int64) Balance {
	if miles < 0 {
		miles = 0
	}
	return Balance{miles: miles}
}

// Unlimited returns the unmetered balance.
func Unlimited() Balance {
	return Balance{unlimited: true}
}

// FromStored decodes a stored column value.
func FromStored(value int64) Balance {
	if value == UnlimitedSentinel {
		return Unlimited()
	}
	return Limited(value)
}

// Stored encodes the balance for the storage column.
func (b Balance) Stored() int64 {
	if b.unlimited {
		return UnlimitedSentinel
	}
	return b.miles
}

// IsUnlimited reports whether the balance is unmetered.
func (b Balance) IsUnlimited() bool { return b.unlimited }

// Miles returns the finite miles count; zero for unlimited balances.
func (b Balance) Miles() int64 {
	if b.unlimited {
		return 0
	}
	return b.miles
}

// CanCover reports whether the balance pays for the given cost.
func (b Balance) CanCover(cost int64) bool {
	if b.unlimited {
		return true
	}
	return b.miles >= cost
}
