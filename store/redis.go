package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures RedisRepository
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisRepository stores each entry as a JSON string key
type RedisRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRepository connects and pings the server
func NewRedisRepository(ctx context.Context, opts RedisOptions) (*RedisRepository, error) {
	log.Printf("[Store] connecting to redis at %s", opts.Addr)

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisRepository{rdb: rdb, prefix: opts.Prefix}, nil
}

func (r *RedisRepository) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

func (r *RedisRepository) get(ctx context.Context, name string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (r *RedisRepository) Load(ctx context.Context) (*State, error) {
	videos, err := r.get(ctx, KeyVideos)
	if err != nil {
		return nil, err
	}
	settings, err := r.get(ctx, KeySettings)
	if err != nil {
		return nil, err
	}
	return decodeEntries("redis", videos, settings, json.Unmarshal), nil
}

func (r *RedisRepository) Save(ctx context.Context, state *State) error {
	videos, err := json.Marshal(state.Videos)
	if err != nil {
		return fmt.Errorf("failed to encode videos: %w", err)
	}
	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(KeyVideos), videos, 0)
		pipe.Set(ctx, r.key(KeySettings), settings, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.rdb.Close()
}
