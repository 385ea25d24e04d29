// Package evidence resolves and memoizes access URLs for uploaded
// verification files so repeated inspection of the same record does not
// round-trip to the blob store.
package evidence

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"smartkyc/internal/domain"
	"smartkyc/internal/platform/metrics"
	dErrors "smartkyc/pkg/domainerrors"
)

// Key scopes one cached sequence of references.
type Key struct {
	OwnerID  string
	Category domain.Category
}

func (k Key) String() string {
	return k.OwnerID + "/" + string(k.Category)
}

// EntryStore holds resolved reference sequences. Implementations must never
// expose a torn entry: a concurrent read during invalidation sees either
// the pre-invalidation value or nothing.
type EntryStore interface {
	Get(ctx context.Context, key Key) ([]domain.Reference, bool, error)
	Set(ctx context.Context, key Key, refs []domain.Reference) error
	DeleteOwner(ctx context.Context, ownerID string) error
	Clear(ctx context.Context) error
}

// Cache memoizes blob listings per (owner, category). Lifetime is bound to
// one authorized admin session; the gate clears it on logout.
type Cache struct {
	blobs   domain.BlobStore
	store   EntryStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	group singleflight.Group

	// Invalidation epochs. A fetch captures the epoch before listing and
	// refuses to store its result if an invalidation happened in between,
	// so a deletion racing an in-flight fetch cannot resurrect entries.
	mu     sync.Mutex
	global uint64
	owners map[string]uint64
}

func NewCache(blobs domain.BlobStore, store EntryStore, logger *slog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		blobs:   blobs,
		store:   store,
		logger:  logger,
		metrics: m,
		owners:  make(map[string]uint64),
	}
}

// Get returns the resolved references for one owner and category. A hit is
// served from the entry store; a miss lists the blob store and resolves
// each object to an access URL. Concurrent misses for the same key share a
// single fetch. Failures are surfaced to the caller and leave the key
// uncached so a retry can succeed.
func (c *Cache) Get(ctx context.Context, ownerID string, category domain.Category) ([]domain.Reference, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner id required")
	}
	if !category.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown evidence category")
	}
	key := Key{OwnerID: ownerID, Category: category}

	if refs, ok, err := c.store.Get(ctx, key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence cache read failed")
	} else if ok {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return refs, nil
	}

	result, err, shared := c.group.Do(key.String(), func() (any, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		if shared {
			c.metrics.CacheShared.Inc()
		} else {
			c.metrics.CacheMisses.Inc()
		}
	}
	return result.([]domain.Reference), nil
}

func (c *Cache) fetch(ctx context.Context, key Key) ([]domain.Reference, error) {
	// Another caller may have populated the store between our miss and
	// winning the flight.
	if refs, ok, err := c.store.Get(ctx, key); err == nil && ok {
		return refs, nil
	}

	epoch := c.epoch(key.OwnerID)

	handles, err := c.blobs.List(ctx, domain.EvidencePrefix(key.OwnerID, key.Category))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence listing failed")
	}
	refs := make([]domain.Reference, 0, len(handles))
	for _, handle := range handles {
		url, err := c.blobs.AccessURL(ctx, handle)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence url resolution failed")
		}
		refs = append(refs, domain.Reference{Name: handle.Name, URL: url})
	}

	if c.epoch(key.OwnerID) != epoch {
		// Invalidated mid-fetch; hand the result to the caller but do
		// not cache it.
		return refs, nil
	}
	if err := c.store.Set(ctx, key, refs); err != nil {
		c.logger.WarnContext(ctx, "evidence cache write failed",
			"key", key.String(),
			"error", err,
		)
		return refs, nil
	}

	// The write itself can race an invalidation: with a remote entry
	// store, Set is a round trip that may complete after the deletion's
	// DeleteOwner already ran, resurrecting the pre-deletion entry.
	// Re-check and take the entry back out if an invalidation landed
	// while the write was in flight.
	if c.epoch(key.OwnerID) != epoch {
		if err := c.store.DeleteOwner(ctx, key.OwnerID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence cache invalidation failed")
		}
	}
	return refs, nil
}

// InvalidateOwner removes every cached entry for every category belonging
// to the owner. Called synchronously as part of record deletion.
func (c *Cache) InvalidateOwner(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	c.owners[ownerID]++
	c.mu.Unlock()

	for _, category := range domain.Categories() {
		c.group.Forget(Key{OwnerID: ownerID, Category: category}.String())
	}
	if err := c.store.DeleteOwner(ctx, ownerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence cache invalidation failed")
	}
	return nil
}

// Clear empties the cache entirely. Called when the admin session ends so
// evidence URLs never leak across sessions.
func (c *Cache) Clear(ctx context.Context) error {
	// Owner counters are kept so epoch sums only ever move forward.
	c.mu.Lock()
	c.global++
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence cache clear failed")
	}
	return nil
}

func (c *Cache) epoch(ownerID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global + c.owners[ownerID]
}
