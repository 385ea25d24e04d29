package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"smartkyc/internal/audit"
	providermem "smartkyc/internal/auth/provider/memory"
	storemem "smartkyc/internal/directory/store/memory"
	"smartkyc/internal/domain"
	"smartkyc/internal/platform/logger"
	dErrors "smartkyc/pkg/domainerrors"
)

type BootstrapSuite struct {
	suite.Suite
	ctx       context.Context
	provider  *providermem.Provider
	store     *storemem.Store
	sink      *audit.MemorySink
	bootstrap *Bootstrap
}

func TestBootstrapSuite(t *testing.T) {
	suite.Run(t, new(BootstrapSuite))
}

func (s *BootstrapSuite) SetupTest() {
	s.ctx = context.Background()
	s.provider = providermem.New("test-key", time.Hour)
	s.store = storemem.New()
	s.sink = audit.NewMemorySink()
	s.bootstrap = NewBootstrap(s.provider, s.store, audit.NewPublisher(s.sink), logger.Discard())
}

func (s *BootstrapSuite) TearDownTest() {
	s.provider.Close()
}

func (s *BootstrapSuite) TestCreateAdmin() {
	principal, err := s.bootstrap.CreateAdmin(s.ctx, "admin@example.com", "correct horse")
	s.Require().NoError(err)
	s.NotEmpty(principal.UID)
	s.Equal("admin@example.com", principal.Email)

	entry, found, err := s.store.GetRegistryEntry(s.ctx, domain.AdminRegistry, principal.UID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(true, entry[domain.RegistryFieldIsAdmin])
	s.Equal("admin@example.com", entry["email"])
	s.NotEmpty(entry["createdAt"])

	// The created account can sign in.
	signed, err := s.provider.SignIn(s.ctx, "admin@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(principal.UID, signed.UID)

	events := s.sink.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.EventAdminCreated, events[0].Kind)
}

func (s *BootstrapSuite) TestCreateAdminValidation() {
	s.Run("malformed email", func() {
		_, err := s.bootstrap.CreateAdmin(s.ctx, "not-an-email", "correct horse")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("short password", func() {
		_, err := s.bootstrap.CreateAdmin(s.ctx, "admin@example.com", "short")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *BootstrapSuite) TestCreateAdminDuplicate() {
	_, err := s.bootstrap.CreateAdmin(s.ctx, "admin@example.com", "correct horse")
	s.Require().NoError(err)

	_, err = s.bootstrap.CreateAdmin(s.ctx, "admin@example.com", "correct horse")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
