package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"smartkyc/internal/audit"
	"smartkyc/internal/domain"
	dErrors "smartkyc/pkg/domainerrors"
)

// Registrar creates accounts with the identity provider. The memory
// provider implements it; a hosted provider would wrap its admin API.
type Registrar interface {
	Register(ctx context.Context, email, password string) (domain.Principal, error)
}

// RegistryWriter writes admin registry entries.
type RegistryWriter interface {
	SetRegistryEntry(ctx context.Context, registry, id string, fields map[string]any) error
}

// Bootstrap creates administrator accounts: an identity provider account
// plus the registry entry that the gate's privilege check reads.
type Bootstrap struct {
	registrar Registrar
	registry  RegistryWriter
	audit     *audit.Publisher
	logger    *slog.Logger
}

func NewBootstrap(registrar Registrar, registry RegistryWriter, publisher *audit.Publisher, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{registrar: registrar, registry: registry, audit: publisher, logger: logger}
}

func (b *Bootstrap) CreateAdmin(ctx context.Context, email, password string) (domain.Principal, error) {
	if !strings.Contains(email, "@") {
		return domain.Principal{}, dErrors.New(dErrors.CodeBadRequest, "valid email required")
	}
	if len(password) < 8 {
		return domain.Principal{}, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	principal, err := b.registrar.Register(ctx, email, password)
	if err != nil {
		return domain.Principal{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "account creation failed")
	}

	entry := map[string]any{
		"email":                     email,
		domain.RegistryFieldIsAdmin: true,
		"createdAt":                 time.Now().UTC().Format(time.RFC3339),
	}
	if err := b.registry.SetRegistryEntry(ctx, domain.AdminRegistry, principal.UID, entry); err != nil {
		return domain.Principal{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "admin registry write failed")
	}

	if b.audit != nil {
		if err := b.audit.Emit(ctx, audit.Event{Kind: audit.EventAdminCreated, Actor: email}); err != nil {
			b.logger.ErrorContext(ctx, "failed to emit admin event", "error", err)
		}
	}
	return principal, nil
}
