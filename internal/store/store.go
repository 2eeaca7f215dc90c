package store

import "errors"

// Sentinel errors surfaced by the stores. Handlers map these to HTTP statuses.
var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidSplit         = errors.New("member split percentages must sum to 100")
)
