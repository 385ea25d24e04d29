// Package directory maintains the live in-memory mirror of the verification
// record store and owns the administrator mutation paths.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"smartkyc/internal/domain"
	"smartkyc/internal/platform/metrics"
	dErrors "smartkyc/pkg/domainerrors"
)

// Syncer mirrors the remote record store. It holds exactly one subscription
// while running and republishes every store change as a complete normalized
// snapshot, so consumers never see partial updates.
type Syncer struct {
	store   domain.RecordStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	running bool
	gen     uint64
	cancel  domain.CancelFunc
	latest  []domain.VerificationRecord
}

// NewSyncer creates a stopped Syncer. metrics may be nil in tests.
func NewSyncer(store domain.RecordStore, logger *slog.Logger, m *metrics.Metrics) *Syncer {
	return &Syncer{store: store, logger: logger, metrics: m}
}

// Start opens the store subscription and begins delivering snapshots to
// onSnapshot. Snapshots are delivered in store notification order, one at a
// time; onSnapshot must not call back into the Syncer.
func (s *Syncer) Start(ctx context.Context, onSnapshot func([]domain.VerificationRecord)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInternal, "directory sync already started")
	}
	s.running = true
	gen := s.gen
	s.mu.Unlock()

	cancel, err := s.store.Subscribe(ctx, func(records []domain.RawRecord) {
		s.deliver(gen, records, onSnapshot)
	})
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.running = false
		}
		s.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store subscription failed")
	}

	s.mu.Lock()
	if s.gen != gen {
		// Stopped while the subscription was being opened.
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

// deliver normalizes and republishes one snapshot. The generation check and
// the callback run under the same lock Stop takes, so a snapshot from a
// stale subscription can never reach a consumer after Stop returns.
func (s *Syncer) deliver(gen uint64, raws []domain.RawRecord, onSnapshot func([]domain.VerificationRecord)) {
	records := make([]domain.VerificationRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, domain.FromRaw(raw))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || !s.running {
		return
	}
	s.latest = records
	if s.metrics != nil {
		s.metrics.SnapshotsDelivered.Inc()
	}
	if onSnapshot != nil {
		onSnapshot(records)
	}
}

// Stop releases the subscription. After it returns no further snapshot is
// delivered. Safe to call repeatedly and before Start.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.running = false
	s.latest = nil
	s.gen++
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Latest returns a copy of the most recently delivered snapshot. Ordering is
// not stable across snapshots.
func (s *Syncer) Latest() []domain.VerificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VerificationRecord, len(s.latest))
	copy(out, s.latest)
	return out
}

// Get returns the latest known state of one record.
func (s *Syncer) Get(ownerID string) (domain.VerificationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.latest {
		if r.OwnerID == ownerID {
			return r, true
		}
	}
	return domain.VerificationRecord{}, false
}
