package config

import (
	"time"

	"github.com/spf13/viper"
)

type Encoder struct {
	// Which SDK backend performs the ciphertext construction: local | remote
	Backend string

	// Remote coprocessor URL, used only by the remote backend
	Url string

	// Request timeout for the remote backend
	RequestTimeout time.Duration

	// Max requests per second sent to the remote backend
	RateLimit int

	// Max values allowed in one batch session
	MaxBatchSize int
}

func setEncoderDefaults() {
	viper.SetDefault("Encoder.Backend", "local")
	viper.SetDefault("Encoder.Url", "http://localhost:8545")
	viper.SetDefault("Encoder.RequestTimeout", "30s")
	viper.SetDefault("Encoder.RateLimit", "10")
	viper.SetDefault("Encoder.MaxBatchSize", "16")
}
