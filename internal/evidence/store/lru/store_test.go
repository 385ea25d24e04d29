package lru

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
)

func key(owner string, category domain.Category) evidence.Key {
	return evidence.Key{OwnerID: owner, Category: category}
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	store := New(8)

	refs := []domain.Reference{{Name: "front.jpg", URL: "https://x/front.jpg"}}
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), refs))

	got, ok, err := store.Get(ctx, key("u1", domain.CategoryDocument))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, refs, got)

	_, ok, err = store.Get(ctx, key("u1", domain.CategoryLiveness))
	require.NoError(t, err)
	assert.False(t, ok, "absent key is a miss, not an error")
}

func TestEvictionBound(t *testing.T) {
	ctx := context.Background()
	store := New(2)

	for i := 0; i < 5; i++ {
		owner := fmt.Sprintf("u%d", i)
		require.NoError(t, store.Set(ctx, key(owner, domain.CategoryDocument),
			[]domain.Reference{{Name: owner}}))
	}

	live := 0
	for i := 0; i < 5; i++ {
		_, ok, err := store.Get(ctx, key(fmt.Sprintf("u%d", i), domain.CategoryDocument))
		require.NoError(t, err)
		if ok {
			live++
		}
	}
	assert.LessOrEqual(t, live, 2, "cache stays within its bound")

	_, ok, err := store.Get(ctx, key("u4", domain.CategoryDocument))
	require.NoError(t, err)
	assert.True(t, ok, "most recent entry survives")
}

func TestDeleteOwner(t *testing.T) {
	ctx := context.Background()
	store := New(8)
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	require.NoError(t, store.Set(ctx, key("u1", domain.CategorySelfie), []domain.Reference{{Name: "b"}}))
	require.NoError(t, store.Set(ctx, key("u2", domain.CategoryDocument), []domain.Reference{{Name: "c"}}))

	require.NoError(t, store.DeleteOwner(ctx, "u1"))

	_, ok, _ := store.Get(ctx, key("u1", domain.CategoryDocument))
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, key("u1", domain.CategorySelfie))
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, key("u2", domain.CategoryDocument))
	assert.True(t, ok)

	// Deleting an owner whose keys were already evicted is a no-op.
	require.NoError(t, store.DeleteOwner(ctx, "u1"))
	require.NoError(t, store.DeleteOwner(ctx, "never-seen"))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := New(8)
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	require.NoError(t, store.Clear(ctx))

	_, ok, _ := store.Get(ctx, key("u1", domain.CategoryDocument))
	assert.False(t, ok)

	// Still usable after a clear.
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	_, ok, _ = store.Get(ctx, key("u1", domain.CategoryDocument))
	assert.True(t, ok)
}
