//go:build integration

package redisstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
	"smartkyc/internal/evidence/store/redisstore"
	"smartkyc/pkg/testutil/containers"
)

// RedisIntegrationSuite runs the entry store against a real Redis server.
// The in-process suite covers behavior; this covers wire compatibility.
type RedisIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *redisstore.Store
}

func TestRedisIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = redisstore.New(s.redis.Client)
}

func (s *RedisIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func key(owner string, category domain.Category) evidence.Key {
	return evidence.Key{OwnerID: owner, Category: category}
}

func (s *RedisIntegrationSuite) TestRoundTrip() {
	refs := []domain.Reference{
		{Name: "front.jpg", URL: "https://x/front.jpg"},
		{Name: "back.jpg", URL: "https://x/back.jpg"},
	}
	s.Require().NoError(s.store.Set(s.ctx, key("u1", domain.CategoryDocument), refs))

	got, ok, err := s.store.Get(s.ctx, key("u1", domain.CategoryDocument))
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(refs, got)
}

func (s *RedisIntegrationSuite) TestOwnerInvalidation() {
	s.Require().NoError(s.store.Set(s.ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	s.Require().NoError(s.store.Set(s.ctx, key("u1", domain.CategoryLiveness), []domain.Reference{{Name: "b"}}))
	s.Require().NoError(s.store.Set(s.ctx, key("u2", domain.CategoryDocument), []domain.Reference{{Name: "c"}}))

	s.Require().NoError(s.store.DeleteOwner(s.ctx, "u1"))

	_, ok, err := s.store.Get(s.ctx, key("u1", domain.CategoryDocument))
	s.Require().NoError(err)
	s.False(ok)
	_, ok, err = s.store.Get(s.ctx, key("u2", domain.CategoryDocument))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisIntegrationSuite) TestClear() {
	s.Require().NoError(s.store.Set(s.ctx, key("u1", domain.CategoryDocument), []domain.Reference{{Name: "a"}}))
	s.Require().NoError(s.store.Clear(s.ctx))

	_, ok, err := s.store.Get(s.ctx, key("u1", domain.CategoryDocument))
	s.Require().NoError(err)
	s.False(ok)
}
