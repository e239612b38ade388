package common

import (
	"context"
	"errors"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
)

type contextKey int

const (
	configKey contextKey = iota
)

// SetConfig stores the global configuration in the context
func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

func GetConfig(ctx context.Context) (*config.Config, error) {
	config, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil, errors.New("config not set in context")
	}
	return config, nil
}
