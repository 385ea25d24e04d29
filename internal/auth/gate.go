// Package auth gates every directory access behind a positive admin
// privilege check. An authenticated session whose privilege cannot be
// confirmed is revoked before the failure is reported, so an
// authenticated-but-unprivileged session never exists from the outside.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartkyc/internal/audit"
	"smartkyc/internal/domain"
	"smartkyc/internal/platform/metrics"
	dErrors "smartkyc/pkg/domainerrors"
)

// RegistryReader is the read-only admin registry lookup.
type RegistryReader interface {
	GetRegistryEntry(ctx context.Context, registry, id string) (map[string]any, bool, error)
}

// DirectoryLifecycle is the slice of the directory syncer the gate owns:
// it starts when a session is authorized and stops when it ends.
type DirectoryLifecycle interface {
	Start(ctx context.Context, onSnapshot func([]domain.VerificationRecord)) error
	Stop()
}

// CacheLifecycle is cleared when the session ends so evidence URLs never
// leak across sessions.
type CacheLifecycle interface {
	Clear(ctx context.Context) error
}

// Gate is the admin authorization state machine. Transitions are serialized
// under one mutex; remote calls (sign-in, registry lookup, sign-out) happen
// inside the transition, so no observer can see Authorized before the
// privilege check has completed.
type Gate struct {
	idp        domain.IdentityProvider
	registry   RegistryReader
	directory  DirectoryLifecycle
	cache      CacheLifecycle
	onSnapshot func([]domain.VerificationRecord)
	audit      *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	state   State
	session *Session
}

// NewGate wires the gate. onSnapshot is handed to the directory syncer on
// authorization and must not call back into the gate.
func NewGate(
	idp domain.IdentityProvider,
	registry RegistryReader,
	directory DirectoryLifecycle,
	cache CacheLifecycle,
	onSnapshot func([]domain.VerificationRecord),
	publisher *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Gate {
	return &Gate{
		idp:        idp,
		registry:   registry,
		directory:  directory,
		cache:      cache,
		onSnapshot: onSnapshot,
		audit:      publisher,
		logger:     logger,
		metrics:    m,
		state:      StateUnauthenticated,
	}
}

// Login authenticates credentials, confirms admin privilege, and on success
// binds a session and starts the directory subscription.
func (g *Gate) Login(ctx context.Context, email, password string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAuthorized {
		return Session{}, dErrors.New(dErrors.CodeBadRequest, "session already active")
	}

	g.state = StateAuthenticating
	principal, err := g.idp.SignIn(ctx, email, password)
	if err != nil {
		g.state = StateDenied
		g.denied(ctx, email, "invalid-credentials")
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthenticated, "invalid-credentials")
	}

	return g.authorizeLocked(ctx, principal)
}

// Restore runs the privilege check for an ambient session (app restart with
// an existing credential). A restored session that fails the check is
// revoked identically to a fresh login failure.
func (g *Gate) Restore(ctx context.Context, principal domain.Principal) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAuthorized && g.session != nil && g.session.Principal.UID == principal.UID {
		return *g.session, nil
	}
	if g.state == StateAuthorized {
		return Session{}, dErrors.New(dErrors.CodeBadRequest, "session already active")
	}
	return g.authorizeLocked(ctx, principal)
}

// authorizeLocked runs the privilege check and completes the transition to
// Authorized or Denied. Callers hold g.mu.
func (g *Gate) authorizeLocked(ctx context.Context, principal domain.Principal) (Session, error) {
	g.state = StatePrivilegeCheckPending

	entry, found, err := g.registry.GetRegistryEntry(ctx, domain.AdminRegistry, principal.UID)
	if err != nil {
		g.revokeLocked(ctx)
		g.state = StateDenied
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "admin registry lookup failed")
	}
	if !found || !isAdmin(entry) {
		g.revokeLocked(ctx)
		g.state = StateDenied
		g.denied(ctx, principal.Email, "admin-only")
		return Session{}, dErrors.New(dErrors.CodeForbidden, "admin-only")
	}

	session := Session{
		ID:        uuid.NewString(),
		Principal: principal,
		StartedAt: time.Now(),
	}

	// Directory lifecycle is bound to the Authorized state. Detach from
	// the request context so the subscription outlives the login call.
	if err := g.directory.Start(context.WithoutCancel(ctx), g.onSnapshot); err != nil {
		g.revokeLocked(ctx)
		g.state = StateDenied
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "directory sync failed to start")
	}

	g.session = &session
	g.state = StateAuthorized
	g.emit(ctx, audit.Event{Kind: audit.EventLoginAuthorized, Actor: principal.Email})
	return session, nil
}

// Logout revokes the session, stops the directory subscription, and clears
// the evidence cache as one logical operation. Idempotent.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAuthorized {
		g.state = StateUnauthenticated
		return nil
	}

	actor := g.session.Principal.Email
	g.teardownLocked(ctx)
	g.revokeLocked(ctx)
	g.state = StateUnauthenticated
	g.emit(ctx, audit.Event{Kind: audit.EventLogout, Actor: actor})
	return nil
}

// Bind subscribes the gate to the identity provider's ambient session
// changes: a restored credential triggers the privilege check, a vanished
// one tears the session down.
func (g *Gate) Bind() domain.CancelFunc {
	return g.idp.OnSessionChange(func(principal domain.Principal, signedIn bool) {
		ctx := context.Background()
		if signedIn {
			if _, err := g.Restore(ctx, principal); err != nil {
				g.logger.WarnContext(ctx, "ambient session rejected",
					"uid", principal.UID,
					"error", err,
				)
			}
			return
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if g.state == StateAuthorized {
			g.teardownLocked(ctx)
			g.state = StateUnauthenticated
		}
	})
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the bound session while Authorized.
func (g *Gate) Session() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAuthorized || g.session == nil {
		return Session{}, false
	}
	return *g.session, true
}

// Authorized reports whether directory access may be exposed right now.
func (g *Gate) Authorized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == StateAuthorized
}

func (g *Gate) teardownLocked(ctx context.Context) {
	g.directory.Stop()
	if err := g.cache.Clear(ctx); err != nil {
		g.logger.ErrorContext(ctx, "evidence cache clear failed", "error", err)
	}
	g.session = nil
}

func (g *Gate) revokeLocked(ctx context.Context) {
	if err := g.idp.SignOut(ctx); err != nil {
		g.logger.ErrorContext(ctx, "sign-out failed during revocation", "error", err)
	}
	g.session = nil
}

func (g *Gate) denied(ctx context.Context, email, reason string) {
	if g.metrics != nil {
		g.metrics.LoginsDenied.WithLabelValues(reason).Inc()
	}
	g.emit(ctx, audit.Event{Kind: audit.EventLoginDenied, Actor: email, Detail: reason})
}

func (g *Gate) emit(ctx context.Context, event audit.Event) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Emit(ctx, event); err != nil {
		g.logger.ErrorContext(ctx, "failed to emit admin event",
			"kind", string(event.Kind),
			"error", err,
		)
	}
}

func isAdmin(entry map[string]any) bool {
	flag, ok := entry[domain.RegistryFieldIsAdmin].(bool)
	return ok && flag
}
