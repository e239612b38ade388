package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

type LedgerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	ledger *Ledger
	bank   *MemoryBank
	sdk    *encoder.LocalSDK
	now    time.Time

	owner    common.Address
	treasury common.Address
	contract common.Address
	alice    common.Address
	bob      common.Address
}

func (s *LedgerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()

	s.owner = common.HexToAddress(s.config.Market.OwnerAddress)
	s.treasury = common.HexToAddress(s.config.Market.TreasuryAddress)
	s.contract = common.HexToAddress(s.config.Market.ContractAddress)
	s.alice = common.HexToAddress("0xa1")
	s.bob = common.HexToAddress("0xb2")
}

func (s *LedgerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *LedgerTestSuite) SetupTest() {
	s.sdk = encoder.NewLocalSDK()
	s.bank = NewMemoryBank().
		Deposit(s.bob, 10000)
	s.now = time.Unix(1700000000, 0)

	s.ledger = NewLedger(s.config).
		WithSDK(s.sdk).
		WithBank(s.bank).
		WithClock(func() time.Time { return s.now })
}

func (s *LedgerTestSuite) params() CreateOfferParams {
	return CreateOfferParams{
		Title:        "Coaching session",
		Description:  "One hour slot",
		Price:        100,
		DurationDays: 30,
		Slots:        5,
	}
}

func (s *LedgerTestSuite) balance(addr common.Address) uint64 {
	balance, err := s.bank.Balance(s.ctx, addr)
	s.NoError(err)
	return balance
}

func (s *LedgerTestSuite) TestCreateOfferValidation() {
	cases := []struct {
		name   string
		mutate func(*CreateOfferParams)
	}{
		{"empty title", func(p *CreateOfferParams) { p.Title = "" }},
		{"empty description", func(p *CreateOfferParams) { p.Description = "" }},
		{"zero price", func(p *CreateOfferParams) { p.Price = 0 }},
		{"zero duration", func(p *CreateOfferParams) { p.DurationDays = 0 }},
		{"zero slots", func(p *CreateOfferParams) { p.Slots = 0 }},
	}

	for _, c := range cases {
		params := s.params()
		c.mutate(&params)
		_, err := s.ledger.CreateOffer(s.ctx, s.alice, params)
		s.ErrorIs(err, ErrValidation, c.name)
	}

	s.Equal(uint64(0), s.ledger.GetStats().TotalOffers)
	s.Empty(s.ledger.EventsSince(0))
}

func (s *LedgerTestSuite) TestCreateOfferAssignsHandles() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)
	s.Equal(uint64(1), offer.ID)
	s.True(offer.IsActive)
	s.Equal(RevealStateSealed, offer.RevealState)
	s.Equal(offer.CreatedAt+30*86400, offer.ExpiresAt)

	s.Equal(encoder.Width64, offer.PriceHandle.Width())
	s.Equal(encoder.Width16, offer.DurationHandle.Width())
	s.Equal(encoder.Width32, offer.SlotsHandle.Width())

	// Grants for the ledger contract and the creator, per handle
	grants := s.ledger.Grants(offer.ID)
	s.Len(grants, 6)
	s.True(s.ledger.HasGrant(offer.ID, s.alice, offer.PriceHandle))
	s.True(s.ledger.HasGrant(offer.ID, s.contract, offer.SlotsHandle))
	s.False(s.ledger.HasGrant(offer.ID, s.bob, offer.PriceHandle))

	s.Equal([]uint64{1}, s.ledger.ActiveOfferIDs())
	s.Equal([]uint64{1}, s.ledger.OffersByCreator(s.alice))

	stats := s.ledger.GetStats()
	s.Equal(uint64(1), stats.TotalOffers)
	s.Equal(uint64(1), stats.ActiveOffers)
}

func (s *LedgerTestSuite) TestCreateOfferEncryptedImport() {
	session := encoder.NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(100))
	s.NoError(session.Add16(30))
	s.NoError(session.Add32(5))
	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	offer, err := s.ledger.CreateOfferEncrypted(s.ctx, s.alice, s.params(),
		batch.Handles[0], batch.Handles[1], batch.Handles[2], batch.Proof)
	s.NoError(err)
	s.Equal(batch.Handles[0], offer.PriceHandle)
}

func (s *LedgerTestSuite) TestCreateOfferEncryptedRejectsForeignProof() {
	session := encoder.NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(100))
	s.NoError(session.Add16(30))
	s.NoError(session.Add32(5))
	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	// Submitter mismatch, bob imports alice's handles
	_, err = s.ledger.CreateOfferEncrypted(s.ctx, s.bob, s.params(),
		batch.Handles[0], batch.Handles[1], batch.Handles[2], batch.Proof)
	s.ErrorIs(err, ErrProofVerification)

	// Nothing was recorded
	s.Equal(uint64(0), s.ledger.GetStats().TotalOffers)
}

func (s *LedgerTestSuite) TestPurchaseFeeSplit() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	// price 100, quantity 2, fee 500 bps
	purchase, err := s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 200)
	s.NoError(err)
	s.Equal(uint64(200), purchase.TotalPrice)
	s.Equal(uint64(2), purchase.Slots)

	s.Equal(uint64(10000-200), s.balance(s.bob))
	s.Equal(uint64(10), s.balance(s.treasury))
	s.Equal(uint64(190), s.balance(s.alice))
	s.Equal(uint64(0), s.balance(s.contract))

	got, err := s.ledger.GetOffer(offer.ID)
	s.NoError(err)
	s.Equal(uint64(3), got.AvailableSlots)
	s.True(got.IsActive)

	stats := s.ledger.GetStats()
	s.Equal(uint64(1), stats.TotalPurchases)
	s.Equal(uint64(200), stats.TotalVolume)
}

func (s *LedgerTestSuite) TestPurchaseFeeNeverExceedsTotal() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	for _, quantity := range []uint64{1, 3} {
		before := s.balance(s.treasury) + s.balance(s.alice)
		purchase, err := s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, quantity, quantity*100)
		s.NoError(err)

		// Treasury and creator together receive exactly the total price
		after := s.balance(s.treasury) + s.balance(s.alice)
		s.Equal(purchase.TotalPrice, after-before)
	}
}

func (s *LedgerTestSuite) TestPurchaseOverpaymentRefunded() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 1, 150)
	s.NoError(err)

	// Only the total price sticks, the 50 overpayment comes back
	s.Equal(uint64(10000-100), s.balance(s.bob))
}

func (s *LedgerTestSuite) TestPurchaseInsufficientPayment() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 199)
	s.ErrorIs(err, ErrPayment)

	got, err := s.ledger.GetOffer(offer.ID)
	s.NoError(err)
	s.Equal(uint64(5), got.AvailableSlots)
	s.Equal(uint64(10000), s.balance(s.bob))
}

func (s *LedgerTestSuite) TestPurchaseValidation() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 0, 100)
	s.ErrorIs(err, ErrValidation)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 6, 600)
	s.ErrorIs(err, ErrValidation)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.alice, offer.ID, 1, 100)
	s.ErrorIs(err, ErrValidation)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, 42, 1, 100)
	s.ErrorIs(err, ErrNotFound)
}

func (s *LedgerTestSuite) TestPurchaseRejectsOverflowingPrice() {
	params := s.params()
	params.Price = 1<<63 + 1
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, params)
	s.NoError(err)

	// 2 * (2^63 + 1) wraps to 2, the wrapped total must not be accepted
	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 2)
	s.ErrorIs(err, ErrValidation)

	got, err := s.ledger.GetOffer(offer.ID)
	s.NoError(err)
	s.Equal(uint64(5), got.AvailableSlots)
	s.Equal(uint64(10000), s.balance(s.bob))
	s.Equal(uint64(0), s.ledger.GetStats().TotalPurchases)
}

func (s *LedgerTestSuite) TestPurchaseRejectsOverflowingFee() {
	params := s.params()
	params.Price = 1 << 62
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, params)
	s.NoError(err)

	// totalPrice of 2^63 is fine but its fee product in basis points is not
	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 1<<63)
	s.ErrorIs(err, ErrValidation)

	s.Equal(uint64(0), s.ledger.GetStats().TotalPurchases)
}

func (s *LedgerTestSuite) TestPurchaseExpiredOffer() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	s.now = s.now.Add(31 * 24 * time.Hour)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 1, 100)
	s.ErrorIs(err, ErrValidation)
}

func (s *LedgerTestSuite) TestPurchaseExhaustionDeactivates() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 5, 500)
	s.NoError(err)

	got, err := s.ledger.GetOffer(offer.ID)
	s.NoError(err)
	s.False(got.IsActive)
	s.Equal(uint64(0), got.AvailableSlots)
	s.Empty(s.ledger.ActiveOfferIDs())
	s.Equal(uint64(0), s.ledger.GetStats().ActiveOffers)

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 1, 100)
	s.ErrorIs(err, ErrValidation)
}

func (s *LedgerTestSuite) TestTransferFailureRollsBack() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)
	eventsBefore := len(s.ledger.EventsSince(0))

	// The fee leg to the treasury fails
	s.bank.WithFailure(func(from, to common.Address, amount uint64) error {
		if to == s.treasury {
			return errors.New("treasury rejected")
		}
		return nil
	})

	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 200)
	s.ErrorIs(err, ErrPayment)

	// Nothing about the purchase sticks
	got, err := s.ledger.GetOffer(offer.ID)
	s.NoError(err)
	s.Equal(uint64(5), got.AvailableSlots)
	s.True(got.IsActive)
	s.Equal(uint64(10000), s.balance(s.bob))
	s.Equal(uint64(0), s.ledger.GetStats().TotalPurchases)
	s.Len(s.ledger.EventsSince(0), eventsBefore)
}

func (s *LedgerTestSuite) TestDeactivateAuthorization() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)

	err = s.ledger.DeactivateOffer(s.ctx, s.bob, offer.ID)
	s.ErrorIs(err, ErrAuthorization)

	err = s.ledger.DeactivateOffer(s.ctx, s.alice, offer.ID)
	s.NoError(err)

	err = s.ledger.DeactivateOffer(s.ctx, s.alice, offer.ID)
	s.ErrorIs(err, ErrValidation)

	// Owner may deactivate any offer
	second, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)
	s.NoError(s.ledger.DeactivateOffer(s.ctx, s.owner, second.ID))
}

func (s *LedgerTestSuite) TestAdminOperations() {
	err := s.ledger.UpdateFee(s.ctx, s.alice, 600)
	s.ErrorIs(err, ErrAuthorization)

	err = s.ledger.UpdateFee(s.ctx, s.owner, 1001)
	s.ErrorIs(err, ErrValidation)

	s.NoError(s.ledger.UpdateFee(s.ctx, s.owner, 1000))
	s.Equal(uint64(1000), s.ledger.FeeBasisPoints())

	err = s.ledger.UpdateTreasury(s.ctx, s.owner, common.Address{})
	s.ErrorIs(err, ErrValidation)

	newTreasury := common.HexToAddress("0x77")
	s.NoError(s.ledger.UpdateTreasury(s.ctx, s.owner, newTreasury))
	s.Equal(newTreasury, s.ledger.Treasury())
}

func (s *LedgerTestSuite) TestEmergencyWithdraw() {
	s.bank.Deposit(s.contract, 333)

	_, err := s.ledger.EmergencyWithdraw(s.ctx, s.alice)
	s.ErrorIs(err, ErrAuthorization)

	amount, err := s.ledger.EmergencyWithdraw(s.ctx, s.owner)
	s.NoError(err)
	s.Equal(uint64(333), amount)
	s.Equal(uint64(333), s.balance(s.owner))
	s.Equal(uint64(0), s.balance(s.contract))
}

func (s *LedgerTestSuite) TestEventSequenceGapless() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)
	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 1, 100)
	s.NoError(err)
	s.NoError(s.ledger.DeactivateOffer(s.ctx, s.alice, offer.ID))

	events := s.ledger.EventsSince(0)
	s.Len(events, 3)
	for i, event := range events {
		s.Equal(uint64(i+1), event.Sequence)
	}
	s.Equal(EventOfferCreated, events[0].Name)
	s.Equal(EventOfferPurchased, events[1].Name)
	s.Equal(EventOfferDeactivated, events[2].Name)

	s.Equal(uint64(4), events[1].RemainingSlots)
	s.Equal(uint64(100), events[1].TotalPrice)

	// Subscribers see the same entries
	tail := s.ledger.EventsSince(2)
	s.Len(tail, 1)
	s.Equal(EventOfferDeactivated, tail[0].Name)
}

func (s *LedgerTestSuite) TestSlowSubscriberDoesNotBlockLedger() {
	events := s.ledger.Subscribe(1)

	_, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.Require().NoError(err)

	// The second create fills the channel and waits for the consumer
	second := make(chan error, 1)
	go func() {
		_, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
		second <- err
	}()
	time.Sleep(100 * time.Millisecond)

	// Read views must stay reachable while the emitter waits on the channel
	read := make(chan struct{})
	go func() {
		defer close(read)
		_, err := s.ledger.GetOffer(1)
		s.NoError(err)
	}()

	select {
	case <-read:
	case <-time.After(2 * time.Second):
		s.FailNow("read view blocked behind a slow subscriber")
	}

	s.Equal(uint64(1), (<-events).Sequence)
	s.Equal(uint64(2), (<-events).Sequence)
	s.NoError(<-second)
}

func (s *LedgerTestSuite) TestSubscriberReceivesEvents() {
	events := s.ledger.Subscribe(10)

	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, s.params())
	s.NoError(err)
	_, err = s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 1, 100)
	s.NoError(err)

	s.Equal(EventOfferCreated, (<-events).Name)
	s.Equal(EventOfferPurchased, (<-events).Name)

	s.ledger.Close()
	_, ok := <-events
	s.False(ok)
}
