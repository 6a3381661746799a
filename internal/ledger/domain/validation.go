package domain

// ValidateEntry enforces the amount-sign rules for each transaction type
// before a row reaches the database.
func ValidateEntry(entry *LedgerEntry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if entry.WalletID == 0 {
		return ErrInvalidWallet
	}

	switch entry.TransactionType {
	case TransactionTypeRollIn:
		if entry.Amount != 0 {
			return ErrInvalidEntryAmount
		}
		if entry.IdempotencyKey == nil || *entry.IdempotencyKey == "" {
			return ErrMissingIdempotencyKey
		}
	case TransactionTypeAddMonthly:
		if entry.Amount <= 0 {
			return ErrInvalidEntryAmount
		}
	case TransactionTypeExpire:
		if entry.Amount >= 0 {
			return ErrInvalidEntryAmount
		}
	case TransactionTypeDeductRequest:
		// Zero is the marker amount for unlimited wallets.
		if entry.Amount > 0 {
			return ErrInvalidEntryAmount
		}
	case TransactionTypeAdjust:
	default:
		return ErrInvalidTransactionType
	}

	return nil
}
