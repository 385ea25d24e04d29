// Package httptransport is the thin HTTP layer over the admin core. It
// delegates to domain services without embedding business logic so
// transport concerns remain isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartkyc/internal/auth"
	"smartkyc/internal/domain"
	"smartkyc/internal/platform/middleware"
	dErrors "smartkyc/pkg/domainerrors"
	"smartkyc/pkg/requestcontext"
)

// Gate is the slice of the admin gate the transport needs.
type Gate interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Logout(ctx context.Context) error
	Session() (auth.Session, bool)
}

// Directory reads the live snapshot.
type Directory interface {
	Latest() []domain.VerificationRecord
	Get(ownerID string) (domain.VerificationRecord, bool)
}

// Mutator is the record mutation service.
type Mutator interface {
	UpdateRecord(ctx context.Context, ownerID string, fields map[string]any) error
	SetVerificationFlag(ctx context.Context, ownerID, field string, verified bool) error
	DeleteRecord(ctx context.Context, ownerID string) error
}

// Evidence resolves cached evidence references.
type Evidence interface {
	Get(ctx context.Context, ownerID string, category domain.Category) ([]domain.Reference, error)
}

// Bootstrap creates admin accounts.
type Bootstrap interface {
	CreateAdmin(ctx context.Context, email, password string) (domain.Principal, error)
}

type Handler struct {
	gate      Gate
	directory Directory
	mutator   Mutator
	evidence  Evidence
	bootstrap Bootstrap
	logger    *slog.Logger
}

func NewHandler(gate Gate, directory Directory, mutator Mutator, evidence Evidence, bootstrap Bootstrap, logger *slog.Logger) *Handler {
	return &Handler{
		gate:      gate,
		directory: directory,
		mutator:   mutator,
		evidence:  evidence,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// NewRouter wires all endpoints. Directory routes sit behind the gate:
// nothing under /directory or /stats is reachable unless the session is
// Authorized.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuthorized)
		r.Post("/auth/admins", h.handleCreateAdmin)
		r.Get("/directory", h.handleListDirectory)
		r.Get("/directory/{ownerID}", h.handleGetRecord)
		r.Patch("/directory/{ownerID}", h.handleUpdateRecord)
		r.Delete("/directory/{ownerID}", h.handleDeleteRecord)
		r.Put("/directory/{ownerID}/flags/{flag}", h.handleSetFlag)
		r.Get("/directory/{ownerID}/evidence/{category}", h.handleListEvidence)
		r.Get("/stats", h.handleStats)
	})

	return r
}

// requireAuthorized rejects any request while the gate is not in the
// Authorized state and records the acting admin for audit attribution.
func (h *Handler) requireAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.gate.Session()
		if !ok {
			writeError(w, dErrors.New(dErrors.CodeForbidden, "admin-only"))
			return
		}
		ctx := requestcontext.WithActor(r.Context(), session.Principal.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
