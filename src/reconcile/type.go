package reconcile

import (
	"context"
	"errors"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
)

// Log-store unreachable or a malformed entry. Degrades affected records
// only, the overall reconciliation still returns.
var ErrReconciliation = errors.New("reconciliation error")

// RecordSource resolves persisted purchase and offer records
type RecordSource interface {
	PurchaseIDsByBuyer(ctx context.Context, buyer common.Address) ([]uint64, error)
	GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error)
	GetOffer(ctx context.Context, id uint64) (*model.Offer, error)
}

// LogSource fetches the historical purchase event log filtered by buyer
type LogSource interface {
	PurchaseLogs(ctx context.Context, buyer common.Address) ([]*PurchaseLog, error)
}

// One purchase entry recovered from the event log
type PurchaseLog struct {
	OfferID        uint64
	Slots          uint64
	TotalPrice     uint64
	BlockTimestamp int64

	// Transaction identity, the whole point of reconciliation
	TxHash string
}

// Correlation key shared by purchase records and log entries. There is no
// purchase id in the log, matching rides on these four fields, so two
// purchases of the same offer, size and price within one block stay
// indistinguishable.
type compositeKey struct {
	OfferID        uint64
	Slots          uint64
	TotalPrice     uint64
	BlockTimestamp int64
}

func (self *PurchaseLog) key() compositeKey {
	return compositeKey{
		OfferID:        self.OfferID,
		Slots:          self.Slots,
		TotalPrice:     self.TotalPrice,
		BlockTimestamp: self.BlockTimestamp,
	}
}

func purchaseKey(purchase *model.Purchase) compositeKey {
	return compositeKey{
		OfferID:        purchase.OfferID,
		Slots:          purchase.Slots,
		TotalPrice:     purchase.TotalPrice,
		BlockTimestamp: purchase.Timestamp,
	}
}

// One reconciled entry, always present for every purchase record of the
// buyer. TxHash stays empty and Degraded gets set when a lookup failed or no
// log entry matched.
type ReconciledPurchase struct {
	Purchase *model.Purchase `json:"purchase"`

	// Nil when the offer lookup failed
	Offer *model.Offer `json:"offer,omitempty"`

	TxHash string `json:"tx_hash,omitempty"`

	Degraded bool `json:"degraded,omitempty"`
}
