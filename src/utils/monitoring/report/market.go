package report

import "go.uber.org/atomic"

type MarketErrors struct {
	LedgerValidationErrors        atomic.Uint64 `json:"ledger_validation_errors"`
	LedgerAuthorizationErrors     atomic.Uint64 `json:"ledger_authorization_errors"`
	LedgerPaymentErrors           atomic.Uint64 `json:"ledger_payment_errors"`
	LedgerProofVerificationErrors atomic.Uint64 `json:"ledger_proof_verification_errors"`
	StoreFlushFailures            atomic.Uint64 `json:"store_flush_failures"`
	NotifierPublishFailures       atomic.Uint64 `json:"notifier_publish_failures"`
}

type MarketState struct {
	OffersCreated             atomic.Int64   `json:"offers_created"`
	OffersPurchased           atomic.Int64   `json:"offers_purchased"`
	OffersDeactivated         atomic.Int64   `json:"offers_deactivated"`
	RevealsRequested          atomic.Int64   `json:"reveals_requested"`
	CallbacksResolved         atomic.Int64   `json:"callbacks_resolved"`
	StoreEventsSaved          atomic.Int64   `json:"store_events_saved"`
	StoreLastSequence         atomic.Int64   `json:"store_last_sequence"`
	NotifierPublished         atomic.Int64   `json:"notifier_published"`
	GatewayRequests           atomic.Int64   `json:"gateway_requests"`
	AveragePurchasesPerMinute atomic.Float64 `json:"average_purchases_per_minute"`
}

type MarketReport struct {
	State  MarketState  `json:"state"`
	Errors MarketErrors `json:"errors"`
}
