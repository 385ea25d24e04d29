package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkyc/internal/domain"
	"smartkyc/pkg/platform/sentinel"
)

func TestListScopedToPrefix(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Put(ctx, "users/u1/documents/front.jpg"))
	require.NoError(t, store.Put(ctx, "users/u1/documents/back.jpg"))
	require.NoError(t, store.Put(ctx, "users/u1/selfies/selfie.jpg"))
	require.NoError(t, store.Put(ctx, "users/u2/documents/front.jpg"))

	handles, err := store.List(ctx, "users/u1/documents")
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, "back.jpg", handles[0].Name)
	assert.Equal(t, "users/u1/documents/back.jpg", handles[0].Path)
	assert.Equal(t, "front.jpg", handles[1].Name)

	handles, err = store.List(ctx, "users/u3/documents")
	require.NoError(t, err)
	assert.Empty(t, handles, "unknown prefix lists empty, not an error")
}

func TestAccessURL(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Put(ctx, "users/u1/documents/front.jpg"))

	url, err := store.AccessURL(ctx, domain.ObjectHandle{Path: "users/u1/documents/front.jpg"})
	require.NoError(t, err)
	assert.Contains(t, url, "users/u1/documents/front.jpg")
	assert.Contains(t, url, "token=")

	_, err = store.AccessURL(ctx, domain.ObjectHandle{Path: "missing"})
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDeleteObject(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Put(ctx, "users/u1/documents/front.jpg"))

	require.NoError(t, store.DeleteObject(ctx, domain.ObjectHandle{Path: "users/u1/documents/front.jpg"}))
	assert.Equal(t, 0, store.Len())

	err := store.DeleteObject(ctx, domain.ObjectHandle{Path: "users/u1/documents/front.jpg"})
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFailDeleteInjection(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Put(ctx, "users/u1/selfies/selfie.jpg"))
	store.FailDelete = "selfies"

	err := store.DeleteObject(ctx, domain.ObjectHandle{Path: "users/u1/selfies/selfie.jpg"})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 1, store.Len(), "failed deletion leaves the object")
}
