package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store and blob-store adapters
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or object does not exist in the store
// - ErrClosed: subscription or client already shut down
// - ErrUnavailable: store or blob store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domainerrors
// directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrClosed      = errors.New("closed")
	ErrUnavailable = errors.New("unavailable")
)
