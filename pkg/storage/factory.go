package storage

import (
	"fmt"

	"github.com/open-teleop/robotbridge/pkg/config"
)

// NewStore creates the backend named by cfg.Kind.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Kind {
	case config.StorageMemory:
		return NewMemoryStore(cfg.MemoryLimit), nil
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
