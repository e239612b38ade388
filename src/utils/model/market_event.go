package model

import (
	"database/sql"

	"github.com/lib/pq"
)

const (
	TableMarketEvent = "market_events"
)

// Event names as they appear in the append-only log
const (
	EventOfferCreated     = "offer-created"
	EventOfferPurchased   = "offer-purchased"
	EventOfferDeactivated = "offer-deactivated"
	EventRevealRequested  = "reveal-requested"
)

// One row per emitted ledger event, append-only
type MarketEvent struct {
	ID int

	// Ledger-wide sequence number of the event
	Sequence uint64

	Name string

	OfferID uint64

	// Address of the actor, creator for offer events, buyer for purchase events
	Actor string

	Slots          sql.NullInt64
	TotalPrice     sql.NullInt64
	RemainingSlots sql.NullInt64

	// Declassified handle list, set only for reveal-requested
	Handles pq.StringArray `gorm:"type:text[]"`

	BlockTimestamp int64

	// Transaction identity assigned by the chain, may be empty for events
	// that were persisted before their transaction was observed
	TxHash string
}

func (MarketEvent) TableName() string {
	return TableMarketEvent
}
