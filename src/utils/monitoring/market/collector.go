package monitor_market

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	LedgerValidationErrors        *prometheus.Desc
	LedgerAuthorizationErrors     *prometheus.Desc
	LedgerPaymentErrors           *prometheus.Desc
	LedgerProofVerificationErrors *prometheus.Desc
	StoreFlushFailures            *prometheus.Desc
	NotifierPublishFailures       *prometheus.Desc
	IndexerLogFetchFailures       *prometheus.Desc
	IndexerMalformedLogEntries    *prometheus.Desc

	// State
	OffersCreated        *prometheus.Desc
	OffersPurchased      *prometheus.Desc
	OffersDeactivated    *prometheus.Desc
	RevealsRequested     *prometheus.Desc
	CallbacksResolved    *prometheus.Desc
	StoreEventsSaved     *prometheus.Desc
	StoreLastSequence    *prometheus.Desc
	NotifierPublished    *prometheus.Desc
	ReconciliationsRun   *prometheus.Desc
	RecordsWithTxHash    *prometheus.Desc
	RecordsDegraded      *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		LedgerValidationErrors:        prometheus.NewDesc("ledger_validation_errors", "", nil, nil),
		LedgerAuthorizationErrors:     prometheus.NewDesc("ledger_authorization_errors", "", nil, nil),
		LedgerPaymentErrors:           prometheus.NewDesc("ledger_payment_errors", "", nil, nil),
		LedgerProofVerificationErrors: prometheus.NewDesc("ledger_proof_verification_errors", "", nil, nil),
		StoreFlushFailures:            prometheus.NewDesc("store_flush_failures", "", nil, nil),
		NotifierPublishFailures:       prometheus.NewDesc("notifier_publish_failures", "", nil, nil),
		IndexerLogFetchFailures:       prometheus.NewDesc("indexer_log_fetch_failures", "", nil, nil),
		IndexerMalformedLogEntries:    prometheus.NewDesc("indexer_malformed_log_entries", "", nil, nil),

		// State
		OffersCreated:      prometheus.NewDesc("offers_created", "", nil, nil),
		OffersPurchased:    prometheus.NewDesc("offers_purchased", "", nil, nil),
		OffersDeactivated:  prometheus.NewDesc("offers_deactivated", "", nil, nil),
		RevealsRequested:   prometheus.NewDesc("reveals_requested", "", nil, nil),
		CallbacksResolved:  prometheus.NewDesc("callbacks_resolved", "", nil, nil),
		StoreEventsSaved:   prometheus.NewDesc("store_events_saved", "", nil, nil),
		StoreLastSequence:  prometheus.NewDesc("store_last_sequence", "", nil, nil),
		NotifierPublished:  prometheus.NewDesc("notifier_published", "", nil, nil),
		ReconciliationsRun: prometheus.NewDesc("reconciliations_run", "", nil, nil),
		RecordsWithTxHash:  prometheus.NewDesc("records_with_tx_hash", "", nil, nil),
		RecordsDegraded:    prometheus.NewDesc("records_degraded", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Errors
	ch <- self.LedgerValidationErrors
	ch <- self.LedgerAuthorizationErrors
	ch <- self.LedgerPaymentErrors
	ch <- self.LedgerProofVerificationErrors
	ch <- self.StoreFlushFailures
	ch <- self.NotifierPublishFailures
	ch <- self.IndexerLogFetchFailures
	ch <- self.IndexerMalformedLogEntries

	// State
	ch <- self.OffersCreated
	ch <- self.OffersPurchased
	ch <- self.OffersDeactivated
	ch <- self.RevealsRequested
	ch <- self.CallbacksResolved
	ch <- self.StoreEventsSaved
	ch <- self.StoreLastSequence
	ch <- self.NotifierPublished
	ch <- self.ReconciliationsRun
	ch <- self.RecordsWithTxHash
	ch <- self.RecordsDegraded
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.LedgerValidationErrors, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.LedgerValidationErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.LedgerAuthorizationErrors, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.LedgerAuthorizationErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.LedgerPaymentErrors, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.LedgerPaymentErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.LedgerProofVerificationErrors, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.LedgerProofVerificationErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreFlushFailures, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.StoreFlushFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotifierPublishFailures, prometheus.CounterValue, float64(self.monitor.Report.Market.Errors.NotifierPublishFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerLogFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.LogFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.IndexerMalformedLogEntries, prometheus.CounterValue, float64(self.monitor.Report.Indexer.Errors.MalformedLogEntries.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.OffersCreated, prometheus.CounterValue, float64(self.monitor.Report.Market.State.OffersCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.OffersPurchased, prometheus.CounterValue, float64(self.monitor.Report.Market.State.OffersPurchased.Load()))
	ch <- prometheus.MustNewConstMetric(self.OffersDeactivated, prometheus.CounterValue, float64(self.monitor.Report.Market.State.OffersDeactivated.Load()))
	ch <- prometheus.MustNewConstMetric(self.RevealsRequested, prometheus.CounterValue, float64(self.monitor.Report.Market.State.RevealsRequested.Load()))
	ch <- prometheus.MustNewConstMetric(self.CallbacksResolved, prometheus.CounterValue, float64(self.monitor.Report.Market.State.CallbacksResolved.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreEventsSaved, prometheus.CounterValue, float64(self.monitor.Report.Market.State.StoreEventsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreLastSequence, prometheus.GaugeValue, float64(self.monitor.Report.Market.State.StoreLastSequence.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotifierPublished, prometheus.CounterValue, float64(self.monitor.Report.Market.State.NotifierPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconciliationsRun, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.ReconciliationsRun.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsWithTxHash, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.RecordsWithTxHash.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsDegraded, prometheus.CounterValue, float64(self.monitor.Report.Indexer.State.RecordsDegraded.Load()))
}
