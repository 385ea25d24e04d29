// Package redisstore keeps evidence cache entries in Redis so several
// console replicas can share one cache. Entries are JSON-encoded under
// evidence:<owner>:<category>, with a per-owner set indexing the keys so
// invalidation stays a two-command operation.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smartkyc/internal/domain"
	"smartkyc/internal/evidence"
)

const keyPrefix = "evidence:"

type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func entryKey(key evidence.Key) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, key.OwnerID, key.Category)
}

func ownerIndexKey(ownerID string) string {
	return fmt.Sprintf("%sowners:%s", keyPrefix, ownerID)
}

func (s *Store) Get(ctx context.Context, key evidence.Key) ([]domain.Reference, bool, error) {
	raw, err := s.client.Get(ctx, entryKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var refs []domain.Reference
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, false, fmt.Errorf("decode cached references: %w", err)
	}
	return refs, true, nil
}

func (s *Store) Set(ctx context.Context, key evidence.Key, refs []domain.Reference) error {
	raw, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encode references: %w", err)
	}
	ek := entryKey(key)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ek, raw, 0)
	pipe.SAdd(ctx, ownerIndexKey(key.OwnerID), ek)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) DeleteOwner(ctx context.Context, ownerID string) error {
	indexKey := ownerIndexKey(ownerID)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis owner index read: %w", err)
	}
	pipe := s.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis owner invalidation: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}
