package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-projects/internal/config"
)

// Keys persisted for the session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is the durable client-side key/value store holding session credentials.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the Storage selected by configuration.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (Storage, error) {
	switch cfg.Driver {
	case config.StorageBolt, "":
		return OpenBolt(cfg.Path, logger)
	case config.StorageRedis:
		return ConnectRedis(cfg.RedisURL, cfg.Namespace, logger)
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
