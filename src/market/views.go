package market

import (
	"fmt"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"

	"github.com/ethereum/go-ethereum/common"
)

// Read views. Every view hands out copies detached from the arena.

func (self *Ledger) GetOffer(offerID uint64) (offer *Offer, err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	offer, err = self.offerByID(offerID)
	if err != nil {
		return
	}
	offer = offer.clone()
	return
}

func (self *Ledger) GetPurchase(purchaseID uint64) (purchase *Purchase, err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	if purchaseID == 0 || purchaseID > uint64(len(self.purchases)) {
		err = fmt.Errorf("%w: purchase %d", ErrNotFound, purchaseID)
		return
	}
	out := *self.purchases[purchaseID-1]
	purchase = &out
	return
}

// ActiveOfferIDs returns ids of active offers in no particular order
func (self *Ledger) ActiveOfferIDs() (out []uint64) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out = make([]uint64, len(self.activeIDs))
	copy(out, self.activeIDs)
	return
}

func (self *Ledger) OffersByCreator(creator common.Address) (out []uint64) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out = make([]uint64, len(self.offersByCreator[creator]))
	copy(out, self.offersByCreator[creator])
	return
}

func (self *Ledger) PurchasesByBuyer(buyer common.Address) (out []*Purchase) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, id := range self.purchasesByBuyer[buyer] {
		purchase := *self.purchases[id-1]
		out = append(out, &purchase)
	}
	return
}

// HandlesByOffer returns the offer's handles in bundle order:
// price, duration, slots
func (self *Ledger) HandlesByOffer(offerID uint64) (out []encoder.Handle, err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	offer, err := self.offerByID(offerID)
	if err != nil {
		return
	}
	out = []encoder.Handle{offer.PriceHandle, offer.DurationHandle, offer.SlotsHandle}
	return
}

func (self *Ledger) Grants(offerID uint64) (out []Grant) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out = make([]Grant, len(self.grants[offerID]))
	copy(out, self.grants[offerID])
	return
}

// HasGrant reports whether the subject was granted access to the handle
func (self *Ledger) HasGrant(offerID uint64, subject common.Address, handle encoder.Handle) bool {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, grant := range self.grants[offerID] {
		if grant.Subject == subject && grant.Handle == handle {
			return true
		}
	}
	return false
}

func (self *Ledger) GetStats() (out Stats) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out = self.stats
	return
}

// EventsSince returns events with Sequence > after, oldest first
func (self *Ledger) EventsSince(after uint64) (out []*Event) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, event := range self.events {
		if event.Sequence > after {
			copied := *event
			out = append(out, &copied)
		}
	}
	return
}

func (self *Ledger) Owner() common.Address {
	return self.owner
}

func (self *Ledger) ContractAddress() common.Address {
	return self.contractAddress
}

func (self *Ledger) Treasury() common.Address {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.treasury
}

func (self *Ledger) FeeBasisPoints() uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.feeBasisPoints
}
