// Package kv is the persistent key/value storage that stands in for a browser's
// local storage. Keys are plain strings; values are opaque strings (usually JSON).
package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trend-finder-be/internal/config"
	"trend-finder-be/pkg/database"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Get reports found=false for missing keys; err is reserved for backend failures.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type prefixedStore struct {
	inner  Store
	prefix string
}

// WithPrefix scopes every key of inner under prefix.
func WithPrefix(inner Store, prefix string) Store {
	return &prefixedStore{inner: inner, prefix: prefix}
}

func (s *prefixedStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *prefixedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *prefixedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// ClientPrefix is the namespace of one client device.
func ClientPrefix(clientID string) string {
	return "client:" + clientID + ":"
}

// NewStore builds the store selected by cfg.Driver. The returned cleanup closes
// the backend connection.
func NewStore(cfg config.StorageConfig) (Store, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), func() {}, nil

	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			opt = &redis.Options{Addr: cfg.RedisURL}
		}
		rdb := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(rdb, "trendfinder:"), func() { rdb.Close() }, nil

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Connection)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		store, err := NewGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return store, cleanup, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
}
