package market

import (
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"

	"github.com/ethereum/go-ethereum/common"
)

// Reveal lifecycle of an offer's encrypted price/slots handles
type RevealState int

const (
	RevealStateSealed RevealState = iota
	RevealStateDeclassified
	RevealStateResolved
)

func (self RevealState) String() string {
	switch self {
	case RevealStateSealed:
		return "sealed"
	case RevealStateDeclassified:
		return "declassified"
	case RevealStateResolved:
		return "resolved"
	}
	return ""
}

// Marketplace entry. Created once, mutated by purchase, deactivate and
// reveal/resolve, never deleted.
type Offer struct {
	// Sequential id assigned by the ledger, never reused
	ID uint64

	Creator common.Address

	Title       string
	Description string

	// Price per slot in the smallest currency unit
	PublicPrice uint64

	DurationDays uint64

	// Total slots, fixed at creation
	Slots uint64

	// Invariant: AvailableSlots <= Slots
	AvailableSlots uint64

	// Becomes false exactly once, either by explicit deactivation or by
	// AvailableSlots reaching zero
	IsActive bool

	CreatedAt int64
	ExpiresAt int64

	// Assigned exactly once at creation, never null afterwards
	PriceHandle    encoder.Handle
	DurationHandle encoder.Handle
	SlotsHandle    encoder.Handle

	RevealState RevealState

	// Filled in by a successful decryption callback
	RevealedPrice *uint64
	RevealedSlots *uint64
}

// Deep copy handed out by ledger views, detached from the arena
func (self *Offer) clone() (out *Offer) {
	out = new(Offer)
	*out = *self
	if self.RevealedPrice != nil {
		price := *self.RevealedPrice
		out.RevealedPrice = &price
	}
	if self.RevealedSlots != nil {
		slots := *self.RevealedSlots
		out.RevealedSlots = &slots
	}
	return
}

// Immutable once created
type Purchase struct {
	// Sequential id assigned by the ledger, never reused
	ID uint64

	OfferID uint64

	Buyer common.Address

	Slots uint64

	// PublicPrice * Slots
	TotalPrice uint64

	Timestamp int64
}

// Permission record allowing a subject to later request plaintext for an
// encrypted field. Created at import time, not independently destructible.
type Grant struct {
	Subject common.Address
	Handle  encoder.Handle
}

// Derived aggregate, never directly mutated, only incremented as a side
// effect of ledger operations
type Stats struct {
	TotalOffers    uint64 `json:"total_offers"`
	TotalPurchases uint64 `json:"total_purchases"`
	TotalVolume    uint64 `json:"total_volume"`
	ActiveOffers   uint64 `json:"active_offers"`
}

type CreateOfferParams struct {
	Title        string
	Description  string
	Price        uint64
	DurationDays uint64
	Slots        uint64
}
