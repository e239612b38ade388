package market

import (
	"encoding/json"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"

	"github.com/ethereum/go-ethereum/common"
)

// Event names of the append-only log
const (
	EventOfferCreated     = "offer-created"
	EventOfferPurchased   = "offer-purchased"
	EventOfferDeactivated = "offer-deactivated"
	EventRevealRequested  = "reveal-requested"
)

// One entry of the append-only event log. Correlation fields are filled per
// event name: Slots/TotalPrice/RemainingSlots for purchases, Handles for
// reveal requests.
type Event struct {
	// Ledger-wide sequence number, gapless and strictly increasing
	Sequence uint64 `json:"sequence"`

	Name string `json:"name"`

	OfferID uint64 `json:"offer_id"`

	// Creator for offer events, buyer for purchase events
	Actor common.Address `json:"actor"`

	Slots          uint64 `json:"slots,omitempty"`
	TotalPrice     uint64 `json:"total_price,omitempty"`
	RemainingSlots uint64 `json:"remaining_slots,omitempty"`

	// The exact handle list declassified, set only for reveal-requested.
	// This is the only authoritative list the upcoming cleartext must cover.
	Handles []encoder.Handle `json:"handles,omitempty"`

	Timestamp int64 `json:"timestamp"`
}

// Implements encoding.BinaryMarshaler so events can be pushed through the
// redis publisher as is
func (self *Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
