package market

import (
	"database/sql"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists emitted ledger events and the affected record snapshots to
// the database.
// - groups incoming events into batches,
// - ensures data isn't stuck even if a batch isn't big enough
type Store struct {
	*task.Processor[*Event, *storeRecord]

	DB *gorm.DB

	ledger  *Ledger
	monitor monitoring.Monitor
}

// One flushed unit: the event row plus snapshots taken at process time.
// Snapshots may be nil when the event doesn't touch that record kind.
type storeRecord struct {
	event    *model.MarketEvent
	offer    *model.Offer
	purchase *model.Purchase
	stats    Stats
}

func NewStore(config *config.Config) (self *Store) {
	self = new(Store)

	self.Processor = task.NewProcessor[*Event, *storeRecord](config, "store-ledger").
		WithBatchSize(config.Market.StoreBatchSize).
		WithOnFlush(config.Market.StoreInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(0, config.Market.StoreMaxBackoffInterval)

	return
}

func (self *Store) WithMonitor(v monitoring.Monitor) *Store {
	self.monitor = v
	return self
}

func (self *Store) WithInputChannel(v chan *Event) *Store {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *Store) WithDB(v *gorm.DB) *Store {
	self.DB = v
	return self
}

func (self *Store) WithLedger(v *Ledger) *Store {
	self.ledger = v
	return self
}

// Snapshots the records the event refers to. Snapshots are taken after the
// event, so a later state may get flushed for an earlier event, which is
// fine since offer rows are upserted whole.
func (self *Store) process(event *Event) (out []*storeRecord, err error) {
	record := &storeRecord{
		event: eventRow(event),
		stats: self.ledger.GetStats(),
	}

	offer, err := self.ledger.GetOffer(event.OfferID)
	if err != nil {
		// Events always follow record creation, a missing offer is a bug
		self.Log.WithError(err).WithField("offer_id", event.OfferID).Error("Event references unknown offer")
		err = nil
	} else {
		record.offer = offerRow(offer)
	}

	if event.Name == EventOfferPurchased {
		for _, purchase := range self.ledger.PurchasesByBuyer(event.Actor) {
			if purchase.OfferID == event.OfferID && purchase.Timestamp == event.Timestamp && purchase.Slots == event.Slots {
				record.purchase = purchaseRow(purchase)
				break
			}
		}
	}

	out = []*storeRecord{record}
	return
}

func (self *Store) flush(records []*storeRecord) (out []*storeRecord, err error) {
	if len(records) == 0 {
		return
	}

	self.Log.WithField("count", len(records)).Trace("Flushing ledger records")
	defer self.Log.Trace("Flushing ledger records done")

	lastSequence := records[len(records)-1].event.Sequence
	stats := records[len(records)-1].stats

	err = self.DB.WithContext(self.Ctx).
		Transaction(func(tx *gorm.DB) (err error) {
			for _, record := range records {
				err = tx.WithContext(self.Ctx).
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(record.event).
					Error
				if err != nil {
					self.Log.WithError(err).Error("Failed to insert market event")
					return
				}

				if record.offer != nil {
					err = tx.WithContext(self.Ctx).
						Clauses(clause.OnConflict{
							Columns:   []clause.Column{{Name: "id"}},
							UpdateAll: true,
						}).
						Create(record.offer).
						Error
					if err != nil {
						self.Log.WithError(err).Error("Failed to upsert offer")
						return
					}
				}

				if record.purchase != nil {
					err = tx.WithContext(self.Ctx).
						Clauses(clause.OnConflict{DoNothing: true}).
						Create(record.purchase).
						Error
					if err != nil {
						self.Log.WithError(err).Error("Failed to insert purchase")
						return
					}
				}
			}

			err = tx.WithContext(self.Ctx).
				Model(&model.SyncState{
					Name: model.SyncedComponentLedgerStore,
				}).
				Updates(model.SyncState{
					LastEventSequence: lastSequence,
					TotalOffers:       stats.TotalOffers,
					TotalPurchases:    stats.TotalPurchases,
					TotalVolume:       stats.TotalVolume,
					ActiveOffers:      stats.ActiveOffers,
				}).
				Error
			if err != nil {
				self.Log.WithError(err).Error("Failed to update sync state")
				return
			}

			return
		})
	if err != nil {
		if self.monitor != nil {
			self.monitor.GetReport().Market.Errors.StoreFlushFailures.Inc()
		}
		return
	}

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.StoreEventsSaved.Add(int64(len(records)))
		self.monitor.GetReport().Market.State.StoreLastSequence.Store(int64(lastSequence))
	}

	out = records
	return
}

func eventRow(event *Event) (out *model.MarketEvent) {
	out = &model.MarketEvent{
		Sequence:       event.Sequence,
		Name:           event.Name,
		OfferID:        event.OfferID,
		Actor:          event.Actor.Hex(),
		BlockTimestamp: event.Timestamp,
	}
	if event.Name == EventOfferPurchased {
		out.Slots = sql.NullInt64{Int64: int64(event.Slots), Valid: true}
		out.TotalPrice = sql.NullInt64{Int64: int64(event.TotalPrice), Valid: true}
		out.RemainingSlots = sql.NullInt64{Int64: int64(event.RemainingSlots), Valid: true}
	}
	for _, handle := range event.Handles {
		out.Handles = append(out.Handles, handle.String())
	}
	return
}

func offerRow(offer *Offer) (out *model.Offer) {
	out = &model.Offer{
		ID:             offer.ID,
		Creator:        offer.Creator.Hex(),
		Title:          offer.Title,
		Description:    offer.Description,
		PublicPrice:    offer.PublicPrice,
		DurationDays:   offer.DurationDays,
		Slots:          offer.Slots,
		AvailableSlots: offer.AvailableSlots,
		IsActive:       offer.IsActive,
		CreatedAt:      offer.CreatedAt,
		ExpiresAt:      offer.ExpiresAt,
		PriceHandle:    offer.PriceHandle.String(),
		DurationHandle: offer.DurationHandle.String(),
		SlotsHandle:    offer.SlotsHandle.String(),
		RevealState:    offer.RevealState.String(),
	}
	if offer.RevealedPrice != nil {
		out.RevealedPrice = sql.NullInt64{Int64: int64(*offer.RevealedPrice), Valid: true}
	}
	if offer.RevealedSlots != nil {
		out.RevealedSlots = sql.NullInt64{Int64: int64(*offer.RevealedSlots), Valid: true}
	}
	return
}

func purchaseRow(purchase *Purchase) (out *model.Purchase) {
	out = &model.Purchase{
		ID:         purchase.ID,
		OfferID:    purchase.OfferID,
		Buyer:      purchase.Buyer.Hex(),
		Slots:      purchase.Slots,
		TotalPrice: purchase.TotalPrice,
		Timestamp:  purchase.Timestamp,
	}
	return
}
