package reconcile

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
)

var purchasedTopic = crypto.Keccak256Hash([]byte("OfferPurchased(uint256,address,uint256,uint256)"))

// ChainSource recovers purchase logs straight from the chain instead of the
// local database. Records still come from the database, only the provenance
// side switches.
type ChainSource struct {
	log *logrus.Entry

	client          *ethclient.Client
	contractAddress common.Address

	numWorkers int

	monitor monitoring.Monitor
}

func NewChainSource(config *config.Config, client *ethclient.Client) (self *ChainSource) {
	self = new(ChainSource)
	self.log = logger.NewSublogger("chain-source")
	self.client = client
	self.contractAddress = common.HexToAddress(config.Indexer.ContractAddress)
	self.numWorkers = config.Indexer.NumWorkers
	return
}

func (self *ChainSource) WithMonitor(v monitoring.Monitor) *ChainSource {
	self.monitor = v
	return self
}

func (self *ChainSource) PurchaseLogs(ctx context.Context, buyer common.Address) (out []*PurchaseLog, err error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{self.contractAddress},
		Topics: [][]common.Hash{
			{purchasedTopic},
			nil,
			{common.BytesToHash(buyer.Bytes())},
		},
	}

	logs, err := self.client.FilterLogs(ctx, query)
	if err != nil {
		if self.monitor != nil {
			self.monitor.GetReport().Indexer.Errors.LogFetchFailures.Inc()
		}
		err = fmt.Errorf("%w: %s", ErrReconciliation, err)
		return
	}

	// Block timestamps get fetched in parallel, one failed fetch only drops
	// that entry from the match set
	var mtx sync.Mutex
	pool := workerpool.New(self.numWorkers)
	for i := range logs {
		entry := logs[i]
		pool.Submit(func() {
			parsed := self.parse(ctx, &entry)
			if parsed == nil {
				return
			}
			mtx.Lock()
			out = append(out, parsed)
			mtx.Unlock()
		})
	}
	pool.StopWait()

	return
}

func (self *ChainSource) parse(ctx context.Context, entry *types.Log) (out *PurchaseLog) {
	if len(entry.Topics) < 3 || len(entry.Data) < 64 {
		self.log.WithField("tx", entry.TxHash.Hex()).Warn("Malformed purchase log entry")
		if self.monitor != nil {
			self.monitor.GetReport().Indexer.Errors.MalformedLogEntries.Inc()
		}
		return
	}

	header, err := self.client.HeaderByHash(ctx, entry.BlockHash)
	if err != nil {
		self.log.WithError(err).WithField("block", entry.BlockHash.Hex()).Warn("Failed to fetch block header")
		if self.monitor != nil {
			self.monitor.GetReport().Indexer.Errors.LogFetchFailures.Inc()
		}
		return
	}

	return &PurchaseLog{
		OfferID:        new(big.Int).SetBytes(entry.Topics[1].Bytes()).Uint64(),
		Slots:          new(big.Int).SetBytes(entry.Data[0:32]).Uint64(),
		TotalPrice:     new(big.Int).SetBytes(entry.Data[32:64]).Uint64(),
		BlockTimestamp: int64(header.Time),
		TxHash:         entry.TxHash.Hex(),
	}
}

var (
	_ LogSource = (*ChainSource)(nil)
	_ LogSource = (*DatabaseSource)(nil)

	_ RecordSource = (*DatabaseSource)(nil)
)
