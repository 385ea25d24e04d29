package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"smartkyc/internal/audit"
	"smartkyc/internal/domain"
	"smartkyc/internal/platform/metrics"
	dErrors "smartkyc/pkg/domainerrors"
	"smartkyc/pkg/platform/sentinel"
	"smartkyc/pkg/requestcontext"
)

// EvidenceInvalidator is the slice of the evidence cache the mutation path
// needs: per-owner invalidation as part of record deletion.
type EvidenceInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string) error
}

// Service owns the administrator mutation paths: partial record updates,
// verification flag toggles, and cascading record deletion.
type Service struct {
	store   domain.RecordStore
	blobs   domain.BlobStore
	cache   EvidenceInvalidator
	audit   *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(
	store domain.RecordStore,
	blobs domain.BlobStore,
	cache EvidenceInvalidator,
	publisher *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:   store,
		blobs:   blobs,
		cache:   cache,
		audit:   publisher,
		logger:  logger,
		metrics: m,
	}
}

// UpdateRecord forwards only the fields explicitly provided; omission means
// "leave unchanged". Contact fields are owned by the intake flow and are
// silently dropped rather than forwarded. Validation happens before any
// remote call.
func (s *Service) UpdateRecord(ctx context.Context, ownerID string, fields map[string]any) error {
	if ownerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner id required")
	}
	if len(fields) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}

	clean := make(map[string]any, len(fields))
	for key, value := range fields {
		if domain.ImmutableFields[key] {
			continue
		}
		if !domain.MutableFields[key] {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown field %q", key))
		}
		if domain.DateFields[key] {
			clean[key] = domain.NormalizeDate(value)
			continue
		}
		clean[key] = value
	}
	if len(clean) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "no updatable fields")
	}

	if err := s.store.Update(ctx, ownerID, clean); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store update failed")
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.EventRecordUpdated,
		OwnerID: ownerID,
		Detail:  fmt.Sprintf("%d fields", len(clean)),
	})
	return nil
}

// SetVerificationFlag flips a single verification check. field must be one
// of the four flag field keys.
func (s *Service) SetVerificationFlag(ctx context.Context, ownerID, field string, verified bool) error {
	switch field {
	case domain.FieldEmailVerified, domain.FieldDocumentVerified,
		domain.FieldSelfieVerified, domain.FieldLivenessVerified:
	default:
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("not a verification flag: %q", field))
	}
	return s.UpdateRecord(ctx, ownerID, map[string]any{field: verified})
}

// DeleteRecord removes the record, then best-effort deletes every evidence
// blob under the owner, then invalidates the evidence cache. Only the record
// deletion itself can fail the operation; surviving blobs are reported as
// cleanup warnings and left for operational follow-up.
func (s *Service) DeleteRecord(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner id required")
	}

	if err := s.store.Delete(ctx, ownerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store delete failed")
	}

	s.cascadeEvidenceCleanup(ctx, ownerID)

	// Invalidation must complete before the deletion is reported so no
	// stale reference can be served afterward.
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "evidence cache invalidation failed",
			"owner_id", ownerID,
			"error", err,
		)
		s.emit(ctx, audit.Event{
			Kind:    audit.EventCleanupWarning,
			OwnerID: ownerID,
			Detail:  "cache invalidation failed: " + err.Error(),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordsDeleted.Inc()
	}
	s.emit(ctx, audit.Event{Kind: audit.EventRecordDeleted, OwnerID: ownerID})
	return nil
}

// cascadeEvidenceCleanup deletes the owner's blobs category by category. A
// category listing failure is treated as zero items; an individual object
// deletion failure is surfaced as a cleanup warning and the remaining blobs
// are still attempted.
func (s *Service) cascadeEvidenceCleanup(ctx context.Context, ownerID string) {
	var (
		mu       sync.Mutex
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range domain.Categories() {
		category := category
		g.Go(func() error {
			prefix := domain.EvidencePrefix(ownerID, category)
			handles, err := s.blobs.List(gctx, prefix)
			if err != nil {
				// Category never had uploads, or listing is down;
				// either way there is nothing provably left behind.
				s.logger.DebugContext(gctx, "no evidence listed during cleanup",
					"owner_id", ownerID,
					"category", string(category),
					"error", err,
				)
				return nil
			}
			for _, handle := range handles {
				if err := s.blobs.DeleteObject(gctx, handle); err != nil {
					mu.Lock()
					warnings = append(warnings, fmt.Sprintf("%s: %v", handle.Path, err))
					mu.Unlock()
				}
			}
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion, not errors.
	_ = g.Wait()

	for _, w := range warnings {
		if s.metrics != nil {
			s.metrics.CleanupWarnings.Inc()
		}
		s.logger.WarnContext(ctx, "evidence blob survived cascade deletion",
			"owner_id", ownerID,
			"detail", w,
		)
		s.emit(ctx, audit.Event{
			Kind:    audit.EventCleanupWarning,
			OwnerID: ownerID,
			Detail:  w,
		})
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Actor = requestcontext.Actor(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit admin event",
			"kind", string(event.Kind),
			"error", err,
		)
	}
}
