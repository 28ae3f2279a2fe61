package storage

import (
	"context"
	"fmt"

	"plantmanager/internal/config"
	"plantmanager/internal/plant"
)

// Validator is implemented by stores that can check their backing location
// before use.
type Validator interface {
	ValidateSetup(ctx context.Context) error
}

// NewStoreFromConfig creates a plant.KVStore implementation based on the storage config type.
// The "sqlite" type is served by the database package and is wired by the caller,
// which owns the database connection.
func NewStoreFromConfig(ctx context.Context, cfg config.StorageConfig) (plant.KVStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem storage requires fs_root to be set")
		}
		store, err := NewFileSystemStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3StoreFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		return nil, fmt.Errorf("sqlite storage must be opened through the database package")
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var (
	_ Validator = (*FileSystemStore)(nil)
	_ Validator = (*S3Store)(nil)
)
