package config

import (
	"time"

	"github.com/spf13/viper"
)

type Indexer struct {
	// Where historical purchase logs are fetched from: database | chain
	LogSource string

	// Chain JSON-RPC url, used only by the chain log source
	RpcProviderUrl string

	// Ledger contract address the chain log source filters logs by
	ContractAddress string

	// Number of workers resolving purchase and offer records
	NumWorkers int

	// Max number of lookups waiting in the worker queue
	WorkerQueueSize int

	// Timeout for a single reconciliation run
	RequestTimeout time.Duration

	// Max time between failed retries of a single fetch
	BackoffInterval time.Duration
}

func setIndexerDefaults() {
	viper.SetDefault("Indexer.LogSource", "database")
	viper.SetDefault("Indexer.RpcProviderUrl", "http://localhost:8545")
	viper.SetDefault("Indexer.ContractAddress", "0x00000000000000000000000000000000000000cc")
	viper.SetDefault("Indexer.NumWorkers", "10")
	viper.SetDefault("Indexer.WorkerQueueSize", "100")
	viper.SetDefault("Indexer.RequestTimeout", "30s")
	viper.SetDefault("Indexer.BackoffInterval", "2s")
}
