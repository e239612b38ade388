package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

func TestIndexerTestSuite(t *testing.T) {
	suite.Run(t, new(IndexerTestSuite))
}

type mockRecordSource struct {
	purchases map[uint64]*model.Purchase
	offers    map[uint64]*model.Offer

	failPurchases map[uint64]bool
	failOffers    map[uint64]bool
}

func (self *mockRecordSource) PurchaseIDsByBuyer(ctx context.Context, buyer common.Address) (out []uint64, err error) {
	for id, purchase := range self.purchases {
		if purchase.Buyer == buyer.Hex() {
			out = append(out, id)
		}
	}
	return
}

func (self *mockRecordSource) GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error) {
	if self.failPurchases[id] {
		return nil, errors.New("purchase fetch failed")
	}
	purchase, ok := self.purchases[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return purchase, nil
}

func (self *mockRecordSource) GetOffer(ctx context.Context, id uint64) (*model.Offer, error) {
	if self.failOffers[id] {
		return nil, errors.New("offer fetch failed")
	}
	offer, ok := self.offers[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return offer, nil
}

type mockLogSource struct {
	logs []*PurchaseLog
	err  error
}

func (self *mockLogSource) PurchaseLogs(ctx context.Context, buyer common.Address) ([]*PurchaseLog, error) {
	return self.logs, self.err
}

type IndexerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	buyer   common.Address
	records *mockRecordSource
	logs    *mockLogSource
}

func (s *IndexerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.config.Indexer.RequestTimeout = 50 * time.Millisecond
	s.config.Indexer.BackoffInterval = 10 * time.Millisecond
	s.buyer = common.HexToAddress("0xb2")
}

func (s *IndexerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *IndexerTestSuite) SetupTest() {
	s.records = &mockRecordSource{
		purchases:     make(map[uint64]*model.Purchase),
		offers:        make(map[uint64]*model.Offer),
		failPurchases: make(map[uint64]bool),
		failOffers:    make(map[uint64]bool),
	}
	s.logs = &mockLogSource{}
}

func (s *IndexerTestSuite) indexer() *Indexer {
	return NewIndexer(s.config).
		WithRecordSource(s.records).
		WithLogSource(s.logs)
}

func (s *IndexerTestSuite) addPurchase(id, offerID, slots, totalPrice uint64, timestamp int64) {
	s.records.purchases[id] = &model.Purchase{
		ID:         id,
		OfferID:    offerID,
		Buyer:      s.buyer.Hex(),
		Slots:      slots,
		TotalPrice: totalPrice,
		Timestamp:  timestamp,
	}
	if _, ok := s.records.offers[offerID]; !ok {
		s.records.offers[offerID] = &model.Offer{ID: offerID, Creator: "0xa1"}
	}
}

func (s *IndexerTestSuite) addLog(offerID, slots, totalPrice uint64, timestamp int64, txHash string) {
	s.logs.logs = append(s.logs.logs, &PurchaseLog{
		OfferID:        offerID,
		Slots:          slots,
		TotalPrice:     totalPrice,
		BlockTimestamp: timestamp,
		TxHash:         txHash,
	})
}

func (s *IndexerTestSuite) TestPartialLogCoverage() {
	// Three purchases, only two matching log entries
	s.addPurchase(1, 10, 2, 200, 1000)
	s.addPurchase(2, 10, 1, 100, 1001)
	s.addPurchase(3, 11, 3, 900, 1002)
	s.addLog(10, 2, 200, 1000, "0xaaa")
	s.addLog(11, 3, 900, 1002, "0xccc")

	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Len(entries, 3)

	s.Equal("0xaaa", entries[0].TxHash)
	s.False(entries[0].Degraded)

	s.Empty(entries[1].TxHash)
	s.True(entries[1].Degraded)

	s.Equal("0xccc", entries[2].TxHash)

	// Offer context is joined in for every resolvable record
	s.Require().NotNil(entries[0].Offer)
	s.Equal(uint64(10), entries[0].Offer.ID)
}

func (s *IndexerTestSuite) TestNoLogEntryMapsToTwoRecords() {
	// Two purchases with identical correlation keys, one log entry
	s.addPurchase(1, 10, 1, 100, 1000)
	s.addPurchase(2, 10, 1, 100, 1000)
	s.addLog(10, 1, 100, 1000, "0xaaa")

	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Len(entries, 2)

	matched := 0
	for _, entry := range entries {
		if entry.TxHash == "0xaaa" {
			matched++
		}
	}
	s.Equal(1, matched)
}

func (s *IndexerTestSuite) TestOfferFetchFailureDegradesRecordOnly() {
	s.addPurchase(1, 10, 1, 100, 1000)
	s.addPurchase(2, 11, 1, 100, 1001)
	s.records.failOffers[11] = true
	s.addLog(10, 1, 100, 1000, "0xaaa")
	s.addLog(11, 1, 100, 1001, "0xbbb")

	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Len(entries, 2)

	s.False(entries[0].Degraded)
	s.NotNil(entries[0].Offer)

	// The record with the failed offer lookup is degraded but still matched
	s.True(entries[1].Degraded)
	s.Nil(entries[1].Offer)
	s.Equal("0xbbb", entries[1].TxHash)
}

func (s *IndexerTestSuite) TestPurchaseFetchFailureKeepsPlaceholder() {
	s.addPurchase(1, 10, 1, 100, 1000)
	s.addPurchase(2, 10, 1, 100, 1001)
	s.records.failPurchases[2] = true

	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Len(entries, 2)

	s.True(entries[1].Degraded)
	s.Empty(entries[1].TxHash)
	s.Nil(entries[1].Offer)
}

func (s *IndexerTestSuite) TestLogFetchFailureDegradesAllRecords() {
	s.addPurchase(1, 10, 1, 100, 1000)
	s.addPurchase(2, 11, 2, 400, 1001)
	s.logs.err = ErrReconciliation

	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Len(entries, 2)

	for _, entry := range entries {
		s.Empty(entry.TxHash)
		s.True(entry.Degraded)
	}
}

func (s *IndexerTestSuite) TestNoPurchases() {
	entries, err := s.indexer().Reconcile(s.ctx, s.buyer)
	s.NoError(err)
	s.Empty(entries)
}
