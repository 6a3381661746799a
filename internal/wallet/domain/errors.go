package domain

import "errors"

var (
	ErrWalletNotFound    = errors.New("wallet_not_found")
	ErrInsufficientMiles = errors.New("insufficient_miles")
	ErrInvalidAmount     = errors.New("invalid_amount")
)
