package report

import "go.uber.org/atomic"

type IndexerErrors struct {
	PurchaseFetchFailures atomic.Uint64 `json:"purchase_fetch_failures"`
	OfferFetchFailures    atomic.Uint64 `json:"offer_fetch_failures"`
	LogFetchFailures      atomic.Uint64 `json:"log_fetch_failures"`
	MalformedLogEntries   atomic.Uint64 `json:"malformed_log_entries"`
}

type IndexerState struct {
	ReconciliationsRun atomic.Int64 `json:"reconciliations_run"`
	RecordsResolved    atomic.Int64 `json:"records_resolved"`
	RecordsWithTxHash  atomic.Int64 `json:"records_with_tx_hash"`
	RecordsDegraded    atomic.Int64 `json:"records_degraded"`
}

type IndexerReport struct {
	State  IndexerState  `json:"state"`
	Errors IndexerErrors `json:"errors"`
}
