package market

import (
	"context"
	"fmt"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"

	"github.com/ethereum/go-ethereum/common"
)

// RequestReveal marks the offer's price and slots handles for public
// decryption and returns the handle list the decryption callback must cover,
// in request order. The duration handle stays confidential.
//
// Declassification is one-way, a second request is rejected.
func (self *Ledger) RequestReveal(ctx context.Context, caller common.Address, offerID uint64) (handles []encoder.Handle, err error) {
	defer func() { self.countError(err) }()

	self.mtx.Lock()
	defer self.dispatchEvents()
	defer self.mtx.Unlock()

	offer, err := self.offerByID(offerID)
	if err != nil {
		return
	}

	if caller != offer.Creator && caller != self.owner {
		err = fmt.Errorf("%w: only creator or owner may request reveal", ErrAuthorization)
		return
	}
	if offer.RevealState != RevealStateSealed {
		err = fmt.Errorf("%w: offer %d already %s", ErrValidation, offerID, offer.RevealState)
		return
	}

	offer.RevealState = RevealStateDeclassified
	handles = []encoder.Handle{offer.PriceHandle, offer.SlotsHandle}

	self.emit(&Event{
		Name:      EventRevealRequested,
		OfferID:   offerID,
		Actor:     caller,
		Handles:   handles,
		Timestamp: self.nowFunc().Unix(),
	})

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.RevealsRequested.Inc()
	}

	self.log.WithField("offer_id", offerID).Debug("Reveal requested")
	return
}

// ResolveCallback accepts the oracle's cleartext for a declassified offer.
// The expected handle list is rebuilt from current offer state, the proof is
// checked against it and the cleartext before any field is written. Either
// both revealed fields are stored and the offer becomes resolved, or nothing
// changes.
func (self *Ledger) ResolveCallback(ctx context.Context, offerID uint64, cleartext []byte, proof encoder.Proof) (err error) {
	defer func() { self.countError(err) }()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	offer, err := self.offerByID(offerID)
	if err != nil {
		return
	}

	if offer.RevealState != RevealStateDeclassified {
		return fmt.Errorf("%w: offer %d is %s, expected declassified", ErrValidation, offerID, offer.RevealState)
	}

	handles := []encoder.Handle{offer.PriceHandle, offer.SlotsHandle}

	err = encoder.Verify(handles, cleartext, proof)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProofVerification, err)
	}

	values, err := encoder.DecodeCleartext(handles, cleartext)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProofVerification, err)
	}

	price, slots := values[0], values[1]
	offer.RevealedPrice = &price
	offer.RevealedSlots = &slots
	offer.RevealState = RevealStateResolved

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.CallbacksResolved.Inc()
	}

	self.log.WithField("offer_id", offerID).Debug("Reveal resolved")
	return
}
