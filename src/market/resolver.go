package market

import (
	"errors"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"github.com/cenkalti/backoff/v4"
)

// Resolver drives the asynchronous half of the reveal flow. It watches the
// event log for reveal requests, asks the oracle for the plaintexts and feeds
// the signed callback back into the ledger.
type Resolver struct {
	*task.Task

	oracle  encoder.Oracle
	ledger  *Ledger
	monitor monitoring.Monitor

	input chan *Event
}

func NewResolver(config *config.Config) (self *Resolver) {
	self = new(Resolver)

	self.Task = task.NewTask(config, "resolver").
		WithSubtaskFunc(self.run).
		WithWorkerPool(1, config.Market.EventChannelSize)

	return
}

func (self *Resolver) WithOracle(v encoder.Oracle) *Resolver {
	self.oracle = v
	return self
}

func (self *Resolver) WithLedger(v *Ledger) *Resolver {
	self.ledger = v
	return self
}

func (self *Resolver) WithMonitor(v monitoring.Monitor) *Resolver {
	self.monitor = v
	return self
}

func (self *Resolver) WithInputChannel(v chan *Event) *Resolver {
	self.input = v
	return self
}

func (self *Resolver) run() (err error) {
	for event := range self.input {
		if event.Name != EventRevealRequested {
			continue
		}

		event := event
		self.SubmitToWorker(func() {
			self.resolve(event)
		})
	}
	return nil
}

func (self *Resolver) resolve(event *Event) {
	self.Log.WithField("offer_id", event.OfferID).Debug("Resolving reveal request")

	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(0).
		WithMaxInterval(30 * time.Second).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			// Rejections from the ledger won't go away on their own
			if errors.Is(err, ErrValidation) || errors.Is(err, ErrProofVerification) || errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			self.Log.WithError(err).WithField("offer_id", event.OfferID).
				Warn("Failed to resolve reveal, retrying")
			return err
		}).
		Run(func() (err error) {
			cleartext, proof, err := self.oracle.Decrypt(self.Ctx, event.Handles)
			if err != nil {
				return
			}
			return self.ledger.ResolveCallback(self.Ctx, event.OfferID, cleartext, proof)
		})
	if err != nil {
		self.Log.WithError(err).WithField("offer_id", event.OfferID).
			Error("Failed to resolve reveal, giving up")
	}
}
