package market

import (
	"context"
	"testing"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type StoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	ledger *Ledger
	store  *Store

	alice common.Address
	bob   common.Address
}

func (s *StoreTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.alice = common.HexToAddress("0xa1")
	s.bob = common.HexToAddress("0xb2")
}

func (s *StoreTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *StoreTestSuite) SetupTest() {
	s.ledger = NewLedger(s.config).
		WithSDK(encoder.NewLocalSDK()).
		WithBank(NewMemoryBank().Deposit(s.bob, 10000)).
		WithClock(func() time.Time { return time.Unix(1700000000, 0) })

	s.store = NewStore(s.config).
		WithLedger(s.ledger)
}

func (s *StoreTestSuite) TestProcessSnapshotsOfferAndStats() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, CreateOfferParams{
		Title:        "Coaching session",
		Description:  "One hour slot",
		Price:        100,
		DurationDays: 30,
		Slots:        5,
	})
	s.Require().NoError(err)

	events := s.ledger.EventsSince(0)
	s.Require().Len(events, 1)

	out, err := s.store.process(events[0])
	s.NoError(err)
	s.Require().Len(out, 1)

	record := out[0]
	s.Equal(model.EventOfferCreated, record.event.Name)
	s.Equal(uint64(1), record.event.Sequence)
	s.False(record.event.Slots.Valid)
	s.Require().NotNil(record.offer)
	s.Equal(offer.ID, record.offer.ID)
	s.Equal(offer.PriceHandle.String(), record.offer.PriceHandle)
	s.Nil(record.purchase)
	s.Equal(uint64(1), record.stats.TotalOffers)
}

func (s *StoreTestSuite) TestProcessCorrelatesPurchase() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, CreateOfferParams{
		Title:        "Coaching session",
		Description:  "One hour slot",
		Price:        100,
		DurationDays: 30,
		Slots:        5,
	})
	s.Require().NoError(err)

	purchase, err := s.ledger.PurchaseOffer(s.ctx, s.bob, offer.ID, 2, 200)
	s.Require().NoError(err)

	events := s.ledger.EventsSince(1)
	s.Require().Len(events, 1)

	out, err := s.store.process(events[0])
	s.NoError(err)
	s.Require().Len(out, 1)

	record := out[0]
	s.Equal(model.EventOfferPurchased, record.event.Name)
	s.True(record.event.Slots.Valid)
	s.EqualValues(2, record.event.Slots.Int64)
	s.EqualValues(200, record.event.TotalPrice.Int64)
	s.Require().NotNil(record.purchase)
	s.Equal(purchase.ID, record.purchase.ID)
	s.Equal(s.bob.Hex(), record.purchase.Buyer)
	s.Require().NotNil(record.offer)
	s.Equal(uint64(3), record.offer.AvailableSlots)
}

func (s *StoreTestSuite) TestEventRowCarriesHandles() {
	offer, err := s.ledger.CreateOffer(s.ctx, s.alice, CreateOfferParams{
		Title:        "Coaching session",
		Description:  "One hour slot",
		Price:        100,
		DurationDays: 30,
		Slots:        5,
	})
	s.Require().NoError(err)

	_, err = s.ledger.RequestReveal(s.ctx, s.alice, offer.ID)
	s.Require().NoError(err)

	events := s.ledger.EventsSince(1)
	s.Require().Len(events, 1)

	row := eventRow(events[0])
	s.Equal(model.EventRevealRequested, row.Name)
	s.Require().Len(row.Handles, 2)
	s.Equal(offer.PriceHandle.String(), row.Handles[0])
	s.Equal(offer.SlotsHandle.String(), row.Handles[1])
}
