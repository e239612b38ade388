package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address of the public gateway
	ServerListenAddress string

	// Max time for a single request to be handled
	ServerRequestTimeout time.Duration

	// How long hot read views (active ids, stats) are cached
	CacheExpiration time.Duration

	// How often expired cache entries get purged
	CacheCleanupInterval time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.ServerListenAddress", ":8080")
	viper.SetDefault("Gateway.ServerRequestTimeout", "30s")
	viper.SetDefault("Gateway.CacheExpiration", "2s")
	viper.SetDefault("Gateway.CacheCleanupInterval", "1m")
}
