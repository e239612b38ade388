package reconcile

import (
	"context"
	"fmt"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// DatabaseSource reads records and event logs persisted by the ledger store
type DatabaseSource struct {
	db      *gorm.DB
	monitor monitoring.Monitor
}

func NewDatabaseSource(db *gorm.DB) *DatabaseSource {
	return &DatabaseSource{db: db}
}

func (self *DatabaseSource) WithMonitor(v monitoring.Monitor) *DatabaseSource {
	self.monitor = v
	return self
}

func (self *DatabaseSource) PurchaseIDsByBuyer(ctx context.Context, buyer common.Address) (out []uint64, err error) {
	err = self.db.WithContext(ctx).
		Table(model.TablePurchase).
		Where("buyer = ?", buyer.Hex()).
		Order("id ASC").
		Pluck("id", &out).
		Error
	return
}

func (self *DatabaseSource) GetPurchase(ctx context.Context, id uint64) (out *model.Purchase, err error) {
	out = new(model.Purchase)
	err = self.db.WithContext(ctx).
		Where("id = ?", id).
		First(out).
		Error
	if err != nil {
		out = nil
	}
	return
}

func (self *DatabaseSource) GetOffer(ctx context.Context, id uint64) (out *model.Offer, err error) {
	out = new(model.Offer)
	err = self.db.WithContext(ctx).
		Where("id = ?", id).
		First(out).
		Error
	if err != nil {
		out = nil
	}
	return
}

func (self *DatabaseSource) PurchaseLogs(ctx context.Context, buyer common.Address) (out []*PurchaseLog, err error) {
	var events []*model.MarketEvent
	err = self.db.WithContext(ctx).
		Where("name = ?", model.EventOfferPurchased).
		Where("actor = ?", buyer.Hex()).
		Order("sequence ASC").
		Find(&events).
		Error
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrReconciliation, err)
		return
	}

	for _, event := range events {
		if !event.Slots.Valid || !event.TotalPrice.Valid {
			// Unusable for matching, the affected record just stays degraded
			if self.monitor != nil {
				self.monitor.GetReport().Indexer.Errors.MalformedLogEntries.Inc()
			}
			continue
		}
		out = append(out, &PurchaseLog{
			OfferID:        event.OfferID,
			Slots:          uint64(event.Slots.Int64),
			TotalPrice:     uint64(event.TotalPrice.Int64),
			BlockTimestamp: event.BlockTimestamp,
			TxHash:         event.TxHash,
		})
	}
	return
}
