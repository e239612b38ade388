package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Ledger is the authoritative state machine owning Offer and Purchase
// records. State-mutating operations are serialized, value-moving operations
// are additionally protected by a scoped reentrancy guard.
//
// Records live in an append-only arena keyed by sequential 1-based ids,
// secondary indices (by creator, by buyer, active-id set) hold ids only.
type Ledger struct {
	log *logrus.Entry

	sdk     encoder.SDK
	bank    Bank
	monitor monitoring.Monitor

	contractAddress common.Address
	owner           common.Address
	treasury        common.Address
	feeBasisPoints  uint64
	maxFeeBps       uint64

	nowFunc func() time.Time

	mtx sync.RWMutex

	// Reentrancy guard around fund transfers, held for the whole
	// mutate-then-transfer sequence of a value-moving operation
	guard sync.Mutex

	offers    []*Offer
	purchases []*Purchase

	// Append-only event log
	events   []*Event
	eventSeq uint64

	// Events queued under mtx, handed to subscribers after it is released.
	// sendMtx serializes delivery so events reach subscribers in sequence
	// order and never race a Close
	outbox  []*Event
	sendMtx sync.Mutex

	offersByCreator  map[common.Address][]uint64
	purchasesByBuyer map[common.Address][]uint64

	// Active-id set with O(1) swap-with-last removal, order not preserved
	activeIDs []uint64
	activePos map[uint64]int

	grants map[uint64][]Grant

	stats Stats

	subscribers []chan *Event
}

func NewLedger(config *config.Config) (self *Ledger) {
	self = new(Ledger)
	self.log = logger.NewSublogger("ledger")

	self.contractAddress = common.HexToAddress(config.Market.ContractAddress)
	self.owner = common.HexToAddress(config.Market.OwnerAddress)
	self.treasury = common.HexToAddress(config.Market.TreasuryAddress)
	self.feeBasisPoints = config.Market.FeeBasisPoints
	self.maxFeeBps = config.Market.MaxFeeBasisPoints

	self.nowFunc = time.Now

	self.offersByCreator = make(map[common.Address][]uint64)
	self.purchasesByBuyer = make(map[common.Address][]uint64)
	self.activePos = make(map[uint64]int)
	self.grants = make(map[uint64][]Grant)

	return
}

func (self *Ledger) WithSDK(v encoder.SDK) *Ledger {
	self.sdk = v
	return self
}

func (self *Ledger) WithBank(v Bank) *Ledger {
	self.bank = v
	return self
}

func (self *Ledger) WithMonitor(v monitoring.Monitor) *Ledger {
	self.monitor = v
	return self
}

// Overrides the time source, used in tests
func (self *Ledger) WithClock(v func() time.Time) *Ledger {
	self.nowFunc = v
	return self
}

// Subscribe returns a channel receiving every appended event.
// Closed by Close() once no further events will be emitted.
func (self *Ledger) Subscribe(size int) chan *Event {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	ch := make(chan *Event, size)
	self.subscribers = append(self.subscribers, ch)
	return ch
}

func (self *Ledger) Close() {
	self.sendMtx.Lock()
	defer self.sendMtx.Unlock()
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, ch := range self.subscribers {
		close(ch)
	}
	self.subscribers = nil
}

// Callers hold the write lock. Delivery happens in dispatchEvents, deferred
// by the emitting operation to run after the lock is released
func (self *Ledger) emit(event *Event) {
	self.eventSeq++
	event.Sequence = self.eventSeq
	self.events = append(self.events, event)
	self.outbox = append(self.outbox, event)
}

// Hands queued events to subscribers without holding mtx, so a subscriber
// that is slow or reads ledger views between events cannot block a writer
// mid-mutation
func (self *Ledger) dispatchEvents() {
	self.sendMtx.Lock()
	defer self.sendMtx.Unlock()

	self.mtx.Lock()
	events := self.outbox
	self.outbox = nil
	subscribers := make([]chan *Event, len(self.subscribers))
	copy(subscribers, self.subscribers)
	self.mtx.Unlock()

	for _, event := range events {
		for _, ch := range subscribers {
			ch <- event
		}
	}
}

func (self *Ledger) countError(err error) {
	if self.monitor == nil || err == nil {
		return
	}
	switch {
	case errors.Is(err, ErrValidation):
		self.monitor.GetReport().Market.Errors.LedgerValidationErrors.Inc()
	case errors.Is(err, ErrAuthorization):
		self.monitor.GetReport().Market.Errors.LedgerAuthorizationErrors.Inc()
	case errors.Is(err, ErrPayment):
		self.monitor.GetReport().Market.Errors.LedgerPaymentErrors.Inc()
	case errors.Is(err, ErrProofVerification):
		self.monitor.GetReport().Market.Errors.LedgerProofVerificationErrors.Inc()
	}
}

// CreateOffer is the plaintext variant. The confidential mirror of the
// numeric fields is produced by the ledger itself through one encoder
// session, so every offer carries its encrypted handles from creation on.
func (self *Ledger) CreateOffer(ctx context.Context, creator common.Address, params CreateOfferParams) (offer *Offer, err error) {
	defer func() { self.countError(err) }()

	err = validateParams(params)
	if err != nil {
		return
	}

	session := encoder.NewSession(self.sdk, self.contractAddress, creator)
	err = session.Add64(params.Price)
	if err == nil {
		err = session.Add16(uint16(params.DurationDays))
	}
	if err == nil {
		err = session.Add32(uint32(params.Slots))
	}
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	batch, err := session.Finalize(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrProofVerification, err)
		return
	}

	return self.importOffer(creator, params, batch.Handles, batch.Proof)
}

// CreateOfferEncrypted imports externally produced ciphertext handles.
// Plain fields are validated before the encrypted import, the shared proof
// must cover exactly the three handles in bundle order.
func (self *Ledger) CreateOfferEncrypted(ctx context.Context, creator common.Address, params CreateOfferParams, priceHandle, durationHandle, slotsHandle encoder.Handle, proof encoder.Proof) (offer *Offer, err error) {
	defer func() { self.countError(err) }()

	err = validateParams(params)
	if err != nil {
		return
	}

	return self.importOffer(creator, params, []encoder.Handle{priceHandle, durationHandle, slotsHandle}, proof)
}

func validateParams(params CreateOfferParams) error {
	if params.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if params.Description == "" {
		return fmt.Errorf("%w: description must not be empty", ErrValidation)
	}
	if params.Price == 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if params.DurationDays == 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if params.Slots == 0 {
		return fmt.Errorf("%w: slots must be positive", ErrValidation)
	}
	// Encrypted mirrors are 16 and 32 bit wide
	if params.DurationDays > 1<<16-1 {
		return fmt.Errorf("%w: duration exceeds %d days", ErrValidation, 1<<16-1)
	}
	if params.Slots > 1<<32-1 {
		return fmt.Errorf("%w: slots exceed %d", ErrValidation, uint64(1<<32-1))
	}
	return nil
}

func (self *Ledger) importOffer(creator common.Address, params CreateOfferParams, handles []encoder.Handle, proof encoder.Proof) (offer *Offer, err error) {
	err = encoder.VerifyImport(handles, proof, self.contractAddress, creator)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrProofVerification, err)
		return
	}
	if len(handles) != 3 {
		err = fmt.Errorf("%w: expected 3 handles, got %d", ErrProofVerification, len(handles))
		return
	}

	self.mtx.Lock()
	defer self.dispatchEvents()
	defer self.mtx.Unlock()

	now := self.nowFunc().Unix()
	offer = &Offer{
		ID:             uint64(len(self.offers)) + 1,
		Creator:        creator,
		Title:          params.Title,
		Description:    params.Description,
		PublicPrice:    params.Price,
		DurationDays:   params.DurationDays,
		Slots:          params.Slots,
		AvailableSlots: params.Slots,
		IsActive:       true,
		CreatedAt:      now,
		ExpiresAt:      now + int64(params.DurationDays)*86400,
		PriceHandle:    handles[0],
		DurationHandle: handles[1],
		SlotsHandle:    handles[2],
		RevealState:    RevealStateSealed,
	}

	self.offers = append(self.offers, offer)
	self.offersByCreator[creator] = append(self.offersByCreator[creator], offer.ID)
	self.addActive(offer.ID)

	// ACL grants for the ledger itself and the creator, per handle
	for _, handle := range handles {
		self.grants[offer.ID] = append(self.grants[offer.ID],
			Grant{Subject: self.contractAddress, Handle: handle},
			Grant{Subject: creator, Handle: handle},
		)
	}

	self.stats.TotalOffers++
	self.stats.ActiveOffers++

	self.emit(&Event{
		Name:      EventOfferCreated,
		OfferID:   offer.ID,
		Actor:     creator,
		Timestamp: now,
	})

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.OffersCreated.Inc()
	}

	self.log.WithField("offer_id", offer.ID).WithField("creator", creator.Hex()).Debug("Offer created")

	offer = offer.clone()
	return
}

// PurchaseOffer moves payment from the buyer and splits it between treasury
// and creator. The whole operation is atomic: a failing transfer leg rolls
// back the slot decrement and nothing is persisted.
func (self *Ledger) PurchaseOffer(ctx context.Context, buyer common.Address, offerID, quantity, payment uint64) (purchase *Purchase, err error) {
	defer func() { self.countError(err) }()

	if !self.guard.TryLock() {
		err = ErrReentrantCall
		return
	}
	defer self.guard.Unlock()

	self.mtx.Lock()
	defer self.dispatchEvents()
	defer self.mtx.Unlock()

	offer, err := self.offerByID(offerID)
	if err != nil {
		return
	}

	now := self.nowFunc().Unix()

	switch {
	case quantity == 0:
		err = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	case !offer.IsActive:
		err = fmt.Errorf("%w: offer %d is not active", ErrValidation, offerID)
	case buyer == offer.Creator:
		err = fmt.Errorf("%w: creator cannot purchase own offer", ErrValidation)
	case quantity > offer.AvailableSlots:
		err = fmt.Errorf("%w: %d slots requested, %d available", ErrValidation, quantity, offer.AvailableSlots)
	case now > offer.ExpiresAt:
		err = fmt.Errorf("%w: offer %d expired", ErrValidation, offerID)
	}
	if err != nil {
		return
	}

	totalPrice := offer.PublicPrice * quantity
	if totalPrice/quantity != offer.PublicPrice {
		err = fmt.Errorf("%w: total price overflows", ErrValidation)
		return
	}
	if payment < totalPrice {
		err = fmt.Errorf("%w: payment %d below total price %d", ErrPayment, payment, totalPrice)
		return
	}

	var fee uint64
	if self.feeBasisPoints > 0 {
		product := totalPrice * self.feeBasisPoints
		if product/self.feeBasisPoints != totalPrice {
			err = fmt.Errorf("%w: fee computation overflows", ErrValidation)
			return
		}
		fee = product / 10000
	}
	creatorAmount := totalPrice - fee
	overpayment := payment - totalPrice

	// Mutate ledger state first, then perform transfers
	offer.AvailableSlots -= quantity
	exhausted := offer.AvailableSlots == 0
	if exhausted {
		offer.IsActive = false
		self.removeActive(offerID)
		self.stats.ActiveOffers--
	}

	err = self.settle(ctx, buyer, offer.Creator, payment, fee, creatorAmount, overpayment)
	if err != nil {
		// Roll back, nothing about this purchase may stick
		offer.AvailableSlots += quantity
		if exhausted {
			offer.IsActive = true
			self.addActive(offerID)
			self.stats.ActiveOffers++
		}
		err = fmt.Errorf("%w: %s", ErrPayment, err)
		return
	}

	purchase = &Purchase{
		ID:         uint64(len(self.purchases)) + 1,
		OfferID:    offerID,
		Buyer:      buyer,
		Slots:      quantity,
		TotalPrice: totalPrice,
		Timestamp:  now,
	}
	self.purchases = append(self.purchases, purchase)
	self.purchasesByBuyer[buyer] = append(self.purchasesByBuyer[buyer], purchase.ID)

	self.stats.TotalPurchases++
	self.stats.TotalVolume += totalPrice

	self.emit(&Event{
		Name:           EventOfferPurchased,
		OfferID:        offerID,
		Actor:          buyer,
		Slots:          quantity,
		TotalPrice:     totalPrice,
		RemainingSlots: offer.AvailableSlots,
		Timestamp:      now,
	})

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.OffersPurchased.Inc()
	}

	self.log.WithField("offer_id", offerID).WithField("purchase_id", purchase.ID).
		WithField("slots", quantity).Debug("Offer purchased")

	out := *purchase
	purchase = &out
	return
}

// Runs the transfer sequence, undoing completed legs when a later one fails
func (self *Ledger) settle(ctx context.Context, buyer, creator common.Address, payment, fee, creatorAmount, overpayment uint64) (err error) {
	type leg struct {
		from, to common.Address
		amount   uint64
	}

	legs := []leg{
		{buyer, self.contractAddress, payment},
		{self.contractAddress, self.treasury, fee},
		{self.contractAddress, creator, creatorAmount},
		{self.contractAddress, buyer, overpayment},
	}

	done := make([]leg, 0, len(legs))
	for _, l := range legs {
		if l.amount == 0 {
			continue
		}
		err = self.bank.Transfer(ctx, l.from, l.to, l.amount)
		if err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				reverseErr := self.bank.Transfer(ctx, done[i].to, done[i].from, done[i].amount)
				if reverseErr != nil {
					self.log.WithError(reverseErr).Error("Failed to reverse transfer leg")
				}
			}
			return
		}
		done = append(done, l)
	}
	return
}

// DeactivateOffer flips the offer inactive. Purchases already made stand,
// there is no refund logic.
func (self *Ledger) DeactivateOffer(ctx context.Context, caller common.Address, offerID uint64) (err error) {
	defer func() { self.countError(err) }()

	self.mtx.Lock()
	defer self.dispatchEvents()
	defer self.mtx.Unlock()

	offer, err := self.offerByID(offerID)
	if err != nil {
		return
	}

	if caller != offer.Creator && caller != self.owner {
		return fmt.Errorf("%w: only creator or owner may deactivate", ErrAuthorization)
	}
	if !offer.IsActive {
		return fmt.Errorf("%w: offer %d is not active", ErrValidation, offerID)
	}

	offer.IsActive = false
	self.removeActive(offerID)
	self.stats.ActiveOffers--

	self.emit(&Event{
		Name:      EventOfferDeactivated,
		OfferID:   offerID,
		Actor:     caller,
		Timestamp: self.nowFunc().Unix(),
	})

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.OffersDeactivated.Inc()
	}

	return
}

func (self *Ledger) UpdateFee(ctx context.Context, caller common.Address, feeBasisPoints uint64) (err error) {
	defer func() { self.countError(err) }()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	if caller != self.owner {
		return fmt.Errorf("%w: only owner may update fee", ErrAuthorization)
	}
	if feeBasisPoints > self.maxFeeBps {
		return fmt.Errorf("%w: fee %d exceeds max %d bps", ErrValidation, feeBasisPoints, self.maxFeeBps)
	}

	self.feeBasisPoints = feeBasisPoints
	return
}

func (self *Ledger) UpdateTreasury(ctx context.Context, caller, treasury common.Address) (err error) {
	defer func() { self.countError(err) }()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	if caller != self.owner {
		return fmt.Errorf("%w: only owner may update treasury", ErrAuthorization)
	}
	if treasury == (common.Address{}) {
		return fmt.Errorf("%w: treasury must not be the zero address", ErrValidation)
	}

	self.treasury = treasury
	return
}

// EmergencyWithdraw drains the ledger-held balance to the owner
func (self *Ledger) EmergencyWithdraw(ctx context.Context, caller common.Address) (amount uint64, err error) {
	defer func() { self.countError(err) }()

	if !self.guard.TryLock() {
		err = ErrReentrantCall
		return
	}
	defer self.guard.Unlock()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	if caller != self.owner {
		err = fmt.Errorf("%w: only owner may withdraw", ErrAuthorization)
		return
	}

	amount, err = self.bank.Balance(ctx, self.contractAddress)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrPayment, err)
		return
	}
	if amount == 0 {
		return
	}

	err = self.bank.Transfer(ctx, self.contractAddress, self.owner, amount)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrPayment, err)
		return
	}

	return
}

// Callers hold at least the read lock
func (self *Ledger) offerByID(offerID uint64) (*Offer, error) {
	if offerID == 0 || offerID > uint64(len(self.offers)) {
		return nil, fmt.Errorf("%w: offer %d", ErrNotFound, offerID)
	}
	return self.offers[offerID-1], nil
}

func (self *Ledger) addActive(offerID uint64) {
	self.activePos[offerID] = len(self.activeIDs)
	self.activeIDs = append(self.activeIDs, offerID)
}

// O(1) swap-with-last removal, order not preserved
func (self *Ledger) removeActive(offerID uint64) {
	pos, ok := self.activePos[offerID]
	if !ok {
		return
	}
	last := len(self.activeIDs) - 1
	moved := self.activeIDs[last]
	self.activeIDs[pos] = moved
	self.activePos[moved] = pos
	self.activeIDs = self.activeIDs[:last]
	delete(self.activePos, offerID)
}
