package market

import "errors"

// Error taxonomy of the ledger. Operations wrap these sentinels with context,
// callers classify with errors.Is.
var (
	// Rejected before any state change or encrypted import
	ErrValidation = errors.New("validation error")

	// Wrong caller identity, rejected before mutation
	ErrAuthorization = errors.New("authorization error")

	// Shared-proof mismatch on import or callback signature mismatch,
	// fatal to the operation, no partial field writes
	ErrProofVerification = errors.New("proof verification error")

	// Insufficient funds or a transfer leg failing, aborts the entire
	// purchase, nothing is persisted
	ErrPayment = errors.New("payment error")

	// A value-moving operation was entered again before the previous
	// transfer sequence finished
	ErrReentrantCall = errors.New("reentrant call")

	ErrNotFound = errors.New("not found")
)
