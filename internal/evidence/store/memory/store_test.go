package memory

import (
	"context"
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
	store := New()

	refs := []domain.Reference{{Name: "front.jpg", URL: "https://x/front.jpg"}}
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), refs))

	got, ok, err := store.Get(ctx, key("u1", domain.CategoryDocument))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, refs, got)

	_, ok, err = store.Get(ctx, key("u1", domain.CategorySelfie))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument),
		[]domain.Reference{{Name: "front.jpg"}}))

	got, _, err := store.Get(ctx, key("u1", domain.CategoryDocument))
	require.NoError(t, err)
	got[0].Name = "mutated"

	again, _, err := store.Get(ctx, key("u1", domain.CategoryDocument))
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", again[0].Name)
}

func TestDeleteOwnerScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := New()
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
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Set(ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	require.NoError(t, store.Clear(ctx))

	_, ok, _ := store.Get(ctx, key("u1", domain.CategoryDocument))
	assert.False(t, ok)
}
