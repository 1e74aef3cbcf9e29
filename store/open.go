package store

import (
	"context"
	"fmt"
	"path/filepath"

	"aivideo/config"
)

// Open creates the repository selected by cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config) (Repository, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return NewMemoryRepository(), nil
	case config.StoreFile:
		return NewFileRepository(cfg.DataDir)
	case config.StoreBadger:
		return NewBadgerRepository(filepath.Join(cfg.DataDir, "badger"))
	case config.StoreRedis:
		return NewRedisRepository(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisKeyPrefix,
		})
	case config.StorePostgres:
		return NewPostgresRepository(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
