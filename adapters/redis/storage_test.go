package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_PutGetMeta(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	entry := map[string]any{
		"arg":             []any{"user", "score"},
		"rounding_method": "nearest",
		"multiply_by":     0.5,
	}
	require.NoError(t, store.PutMeta(ctx, "rule-1", "dynamic_points", entry))

	got, ok, err := store.GetMeta(ctx, "rule-1", "dynamic_points")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nearest", got["rounding_method"])
	assert.Equal(t, 0.5, got["multiply_by"])
	assert.Equal(t, []any{"user", "score"}, got["arg"])
}

func TestStore_GetMeta_Missing(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	_, ok, err := store.GetMeta(context.Background(), "ghost", "dynamic_points")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteMeta(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	require.NoError(t, store.PutMeta(ctx, "rule-1", "dynamic_points", map[string]any{"arg": []any{"a"}}))
	require.NoError(t, store.DeleteMeta(ctx, "rule-1", "dynamic_points"))

	_, ok, err := store.GetMeta(ctx, "rule-1", "dynamic_points")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListRules(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	require.NoError(t, store.PutMeta(ctx, "rule-1", "dynamic_points", map[string]any{"arg": []any{"a"}}))
	require.NoError(t, store.PutMeta(ctx, "rule-2", "dynamic_points", map[string]any{"arg": []any{"b"}}))

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rule-1", "rule-2"}, rules)
}

func TestStore_PutMeta_Overwrites(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	require.NoError(t, store.PutMeta(ctx, "rule-1", "dynamic_points", map[string]any{"arg": []any{"a"}, "min": float64(1)}))
	require.NoError(t, store.PutMeta(ctx, "rule-1", "dynamic_points", map[string]any{"arg": []any{"a"}}))

	got, ok, err := store.GetMeta(ctx, "rule-1", "dynamic_points")
	require.NoError(t, err)
	require.True(t, ok)
	_, hasMin := got["min"]
	assert.False(t, hasMin, "overwrite must replace the whole entry")
}
