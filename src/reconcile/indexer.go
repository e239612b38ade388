package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
)

// Indexer joins persisted purchase records with the historical purchase
// event log to attach transaction identities. Read only, a record that can't
// be matched comes back degraded instead of failing the query.
type Indexer struct {
	log *logrus.Entry

	records RecordSource
	logs    LogSource
	monitor monitoring.Monitor

	numWorkers      int
	requestTimeout  time.Duration
	backoffInterval time.Duration
}

func NewIndexer(config *config.Config) (self *Indexer) {
	self = new(Indexer)
	self.log = logger.NewSublogger("indexer")
	self.numWorkers = config.Indexer.NumWorkers
	self.requestTimeout = config.Indexer.RequestTimeout
	self.backoffInterval = config.Indexer.BackoffInterval
	return
}

func (self *Indexer) WithRecordSource(v RecordSource) *Indexer {
	self.records = v
	return self
}

func (self *Indexer) WithLogSource(v LogSource) *Indexer {
	self.logs = v
	return self
}

func (self *Indexer) WithMonitor(v monitoring.Monitor) *Indexer {
	self.monitor = v
	return self
}

// Reconcile returns one entry per purchase record of the buyer, ordered by
// purchase id. Reads are idempotent, each lookup retries a few times before
// the record gets degraded.
func (self *Indexer) Reconcile(ctx context.Context, buyer common.Address) (out []*ReconciledPurchase, err error) {
	ids, err := self.records.PurchaseIDsByBuyer(ctx, buyer)
	if err != nil {
		// Without the id list there is nothing to degrade gracefully
		return
	}

	// Log fetch failure degrades every record instead of failing the query
	logs, logsErr := self.fetchLogs(ctx, buyer)
	if logsErr != nil {
		self.log.WithError(logsErr).WithField("buyer", buyer.Hex()).
			Warn("Log fetch failed, records will carry no transaction identity")
	}

	entries := self.fetchRecords(ctx, ids)

	// Index log entries by the correlation key. An entry matches at most one
	// record, matched entries get consumed.
	candidates := make(map[compositeKey][]*PurchaseLog)
	for _, entry := range logs {
		key := entry.key()
		candidates[key] = append(candidates[key], entry)
	}

	for _, entry := range entries {
		// Placeholders for failed purchase lookups carry no fields to match on
		if entry.Purchase == nil || entry.Purchase.Buyer == "" {
			continue
		}
		key := purchaseKey(entry.Purchase)
		matches := candidates[key]
		if len(matches) == 0 {
			entry.Degraded = true
			continue
		}
		entry.TxHash = matches[0].TxHash
		candidates[key] = matches[1:]

		if self.monitor != nil {
			self.monitor.GetReport().Indexer.State.RecordsWithTxHash.Inc()
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Purchase.ID < entries[j].Purchase.ID
	})

	if self.monitor != nil {
		self.monitor.GetReport().Indexer.State.ReconciliationsRun.Inc()
		self.monitor.GetReport().Indexer.State.RecordsResolved.Add(int64(len(entries)))
		for _, entry := range entries {
			if entry.Degraded {
				self.monitor.GetReport().Indexer.State.RecordsDegraded.Inc()
			}
		}
	}

	out = entries
	return
}

func (self *Indexer) fetchLogs(ctx context.Context, buyer common.Address) (logs []*PurchaseLog, err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.requestTimeout).
		WithMaxInterval(self.backoffInterval).
		Run(func() (err error) {
			logs, err = self.logs.PurchaseLogs(ctx, buyer)
			return
		})
	return
}

// Purchase and offer lookups run in parallel per entity. A failed lookup
// degrades only its own record.
func (self *Indexer) fetchRecords(ctx context.Context, ids []uint64) (entries []*ReconciledPurchase) {
	var mtx sync.Mutex
	byId := make(map[uint64]*ReconciledPurchase, len(ids))

	pool := workerpool.New(self.numWorkers)
	for _, id := range ids {
		id := id
		pool.Submit(func() {
			purchase, err := self.records.GetPurchase(ctx, id)
			if err != nil {
				self.log.WithError(err).WithField("purchase_id", id).Warn("Failed to fetch purchase")
				if self.monitor != nil {
					self.monitor.GetReport().Indexer.Errors.PurchaseFetchFailures.Inc()
				}
				return
			}

			entry := &ReconciledPurchase{Purchase: purchase}

			offer, err := self.records.GetOffer(ctx, purchase.OfferID)
			if err != nil {
				self.log.WithError(err).WithField("offer_id", purchase.OfferID).Warn("Failed to fetch offer")
				if self.monitor != nil {
					self.monitor.GetReport().Indexer.Errors.OfferFetchFailures.Inc()
				}
				entry.Degraded = true
			} else {
				entry.Offer = offer
			}

			mtx.Lock()
			byId[id] = entry
			mtx.Unlock()
		})
	}
	pool.StopWait()

	for _, id := range ids {
		entry, ok := byId[id]
		if !ok {
			// Purchase lookup failed, keep a placeholder so the caller still
			// sees one entry per known purchase id
			entry = &ReconciledPurchase{
				Purchase: &model.Purchase{ID: id},
				Degraded: true,
			}
		}
		entries = append(entries, entry)
	}
	return
}
