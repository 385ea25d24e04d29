package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"smartkyc/internal/audit"
	blobmem "smartkyc/internal/blob/memory"
	storemem "smartkyc/internal/directory/store/memory"
	"smartkyc/internal/domain"
	"smartkyc/internal/mocks"
	"smartkyc/internal/platform/logger"
	dErrors "smartkyc/pkg/domainerrors"
	"smartkyc/pkg/requestcontext"
)

// invalidatorSpy records InvalidateOwner calls and optionally fails them.
type invalidatorSpy struct {
	calls []string
	err   error
}

func (i *invalidatorSpy) InvalidateOwner(_ context.Context, ownerID string) error {
	i.calls = append(i.calls, ownerID)
	return i.err
}

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	store       *storemem.Store
	blobs       *blobmem.Store
	invalidator *invalidatorSpy
	sink        *audit.MemorySink
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storemem.New()
	s.blobs = blobmem.New()
	s.invalidator = &invalidatorSpy{}
	s.sink = audit.NewMemorySink()
	s.service = NewService(s.store, s.blobs, s.invalidator,
		audit.NewPublisher(s.sink), logger.Discard(), nil)
}

func (s *ServiceSuite) seedRecord(ownerID string) {
	s.Require().NoError(s.store.Put(s.ctx, ownerID, map[string]any{
		domain.FieldFirstName: "Anisha",
		domain.FieldEmail:     "anisha@example.com",
	}))
}

func (s *ServiceSuite) currentFields(ownerID string) map[string]any {
	var fields map[string]any
	cancel, err := s.store.Subscribe(s.ctx, func(records []domain.RawRecord) {
		for _, r := range records {
			if r.OwnerID == ownerID {
				fields = r.Fields
			}
		}
	})
	s.Require().NoError(err)
	cancel()
	return fields
}

func (s *ServiceSuite) eventKinds() []audit.Kind {
	events := s.sink.Events()
	kinds := make([]audit.Kind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (s *ServiceSuite) TestUpdateRecordValidation() {
	s.Run("empty owner id", func() {
		err := s.service.UpdateRecord(s.ctx, "", map[string]any{domain.FieldFirstName: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("no fields", func() {
		err := s.service.UpdateRecord(s.ctx, "u1", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown field rejected before any store call", func() {
		err := s.service.UpdateRecord(s.ctx, "u1", map[string]any{"role": "root"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("update consisting only of immutable fields", func() {
		s.seedRecord("u1")
		err := s.service.UpdateRecord(s.ctx, "u1", map[string]any{
			domain.FieldEmail: "new@example.com",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("anisha@example.com", s.currentFields("u1")[domain.FieldEmail])
	})
}

func (s *ServiceSuite) TestUpdateRecordDropsImmutableFields() {
	s.seedRecord("u1")

	err := s.service.UpdateRecord(s.ctx, "u1", map[string]any{
		domain.FieldFirstName:   "Anu",
		domain.FieldEmail:       "attacker@example.com",
		domain.FieldPhoneNumber: "+9779800000000",
	})
	s.Require().NoError(err)

	fields := s.currentFields("u1")
	s.Equal("Anu", fields[domain.FieldFirstName])
	s.Equal("anisha@example.com", fields[domain.FieldEmail], "contact fields silently dropped")
	s.NotContains(fields, domain.FieldPhoneNumber)
}

func (s *ServiceSuite) TestUpdateRecordNormalizesDates() {
	s.seedRecord("u1")

	err := s.service.UpdateRecord(s.ctx, "u1", map[string]any{
		domain.FieldDOB:         "1994-03-21T00:00:00Z",
		domain.FieldIDIssueDate: "2020-01-15",
	})
	s.Require().NoError(err)

	fields := s.currentFields("u1")
	s.Equal("1994-03-21", fields[domain.FieldDOB])
	s.Equal("2020-01-15", fields[domain.FieldIDIssueDate])
	s.Equal([]audit.Kind{audit.EventRecordUpdated}, s.eventKinds())
}

func (s *ServiceSuite) TestUpdateRecordNotFound() {
	err := s.service.UpdateRecord(s.ctx, "ghost", map[string]any{domain.FieldFirstName: "x"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.sink.Events())
}

func (s *ServiceSuite) TestUpdateRecordStoreFailure() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockRecordStore(ctrl)
	store.EXPECT().
		Update(gomock.Any(), "u1", gomock.Any()).
		Return(errors.New("connection reset"))

	service := NewService(store, s.blobs, s.invalidator,
		audit.NewPublisher(s.sink), logger.Discard(), nil)
	err := service.UpdateRecord(s.ctx, "u1", map[string]any{domain.FieldFirstName: "x"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestSetVerificationFlag() {
	s.seedRecord("u1")

	s.Require().NoError(s.service.SetVerificationFlag(s.ctx, "u1", domain.FieldDocumentVerified, true))
	s.Equal(true, s.currentFields("u1")[domain.FieldDocumentVerified])

	err := s.service.SetVerificationFlag(s.ctx, "u1", domain.FieldFirstName, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) seedEvidence(ownerID string) {
	for _, category := range domain.Categories() {
		for i := 0; i < 2; i++ {
			path := fmt.Sprintf("%s/file-%d.jpg", domain.EvidencePrefix(ownerID, category), i)
			s.Require().NoError(s.blobs.Put(s.ctx, path))
		}
	}
}

func (s *ServiceSuite) TestDeleteRecordCascades() {
	s.seedRecord("u1")
	s.seedEvidence("u1")
	s.Require().Equal(6, s.blobs.Len())

	ctx := requestcontext.WithActor(s.ctx, "admin@example.com")
	s.Require().NoError(s.service.DeleteRecord(ctx, "u1"))

	s.Equal(0, s.blobs.Len(), "all evidence blobs removed")
	s.Equal([]string{"u1"}, s.invalidator.calls, "cache invalidated exactly once")
	s.Nil(s.currentFields("u1"))

	s.Equal([]audit.Kind{audit.EventRecordDeleted}, s.eventKinds())
	s.Equal("admin@example.com", s.sink.Events()[0].Actor)
}

func (s *ServiceSuite) TestDeleteRecordSurvivesBlobFailures() {
	s.seedRecord("u1")
	s.seedEvidence("u1")
	s.blobs.FailDelete = "selfies/file-0"

	err := s.service.DeleteRecord(s.ctx, "u1")
	s.Require().NoError(err, "surviving blobs do not fail the deletion")

	s.Equal(1, s.blobs.Len(), "remaining blobs were still attempted")
	s.Equal([]string{"u1"}, s.invalidator.calls)

	kinds := s.eventKinds()
	s.Require().Len(kinds, 2)
	s.Equal(audit.EventCleanupWarning, kinds[0])
	s.Equal(audit.EventRecordDeleted, kinds[1])
	s.Contains(s.sink.Events()[0].Detail, "selfies/file-0")
}

func (s *ServiceSuite) TestDeleteRecordInvalidationFailureIsNonFatal() {
	s.seedRecord("u1")
	s.invalidator.err = errors.New("redis down")

	err := s.service.DeleteRecord(s.ctx, "u1")
	s.Require().NoError(err)

	kinds := s.eventKinds()
	s.Require().Len(kinds, 2)
	s.Equal(audit.EventCleanupWarning, kinds[0])
	s.Equal(audit.EventRecordDeleted, kinds[1])
}

func (s *ServiceSuite) TestDeleteRecordNotFound() {
	err := s.service.DeleteRecord(s.ctx, "ghost")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.invalidator.calls, "no cleanup on a failed deletion")
}

func (s *ServiceSuite) TestDeleteRecordEmptyOwner() {
	err := s.service.DeleteRecord(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
