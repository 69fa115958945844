package storage

import (
	"fmt"

	"github.com/tcmartin/flowgraph/pkg/config"
)

// NewProvider creates a storage provider from configuration. The provider is
// returned uninitialized; callers run Initialize before use.
func NewProvider(cfg config.StorageConfig) (Provider, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryProvider(), nil
	case "redis":
		return NewRedisProvider(cfg.Redis), nil
	case "postgres":
		return NewPostgresProvider(cfg.Postgres), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
