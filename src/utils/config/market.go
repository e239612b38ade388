package config

import (
	"time"

	"github.com/spf13/viper"
)

type Market struct {
	// Platform owner address, allowed to run admin operations
	OwnerAddress string

	// Address receiving the platform fee cut
	TreasuryAddress string

	// Platform fee in basis points, out of 10000
	FeeBasisPoints uint64

	// Upper bound for the platform fee, admin updates above it are rejected
	MaxFeeBasisPoints uint64

	// Address under which the ledger holds funds and encrypted-field grants
	ContractAddress string

	// Max ledger events buffered before the store/notifier slow consumers block the emitters
	EventChannelSize int

	// Max batch size before ledger records are flushed into the database
	StoreBatchSize int

	// After this time pending ledger records are flushed into the database
	StoreInterval time.Duration

	// Max time between failed retries to store records, 0 means no limit
	StoreMaxBackoffInterval time.Duration

	// Redis channel name the notifier publishes events to
	NotifierChannelName string
}

func setMarketDefaults() {
	viper.SetDefault("Market.OwnerAddress", "0x0000000000000000000000000000000000000001")
	viper.SetDefault("Market.TreasuryAddress", "0x0000000000000000000000000000000000000002")
	viper.SetDefault("Market.FeeBasisPoints", "500")
	viper.SetDefault("Market.MaxFeeBasisPoints", "1000")
	viper.SetDefault("Market.ContractAddress", "0x00000000000000000000000000000000000000cc")
	viper.SetDefault("Market.EventChannelSize", "100")
	viper.SetDefault("Market.StoreBatchSize", "50")
	viper.SetDefault("Market.StoreInterval", "2s")
	viper.SetDefault("Market.StoreMaxBackoffInterval", "30s")
	viper.SetDefault("Market.NotifierChannelName", "market_events")
}
