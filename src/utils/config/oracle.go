package config

import (
	"time"

	"github.com/spf13/viper"
)

type Oracle struct {
	// Decryption oracle URL, polled for callback payloads
	Url string

	// Request timeout for oracle calls
	RequestTimeout time.Duration

	// Max requests per second sent to the oracle
	RateLimit int
}

func setOracleDefaults() {
	viper.SetDefault("Oracle.Url", "http://localhost:8546")
	viper.SetDefault("Oracle.RequestTimeout", "30s")
	viper.SetDefault("Oracle.RateLimit", "10")
}
