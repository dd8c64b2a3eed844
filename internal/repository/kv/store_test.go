package kv

import (
	"context"
	"testing"

	"trend-finder-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "trendFinderLang", "en"))
	value, found, err := store.Get(ctx, "trendFinderLang")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "en", value)

	require.NoError(t, store.Delete(ctx, "trendFinderLang"))
	_, found, _ = store.Get(ctx, "trendFinderLang")
	assert.False(t, found)
}

func TestWithPrefixIsolatesClients(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryStore()
	a := WithPrefix(shared, ClientPrefix("a"))
	b := WithPrefix(shared, ClientPrefix("b"))

	require.NoError(t, a.Set(ctx, "guest_trendFinderHistory", "[1]"))

	_, found, _ := b.Get(ctx, "guest_trendFinderHistory")
	assert.False(t, found)

	raw, found, _ := shared.Get(ctx, "client:a:guest_trendFinderHistory")
	assert.True(t, found)
	assert.Equal(t, "[1]", raw)
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, _, err := NewStore(config.StorageConfig{Driver: "leveldb"})
	assert.Error(t, err)

	store, cleanup, err := NewStore(config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &MemoryStore{}, store)
}
