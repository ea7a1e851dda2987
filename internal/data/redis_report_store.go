package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisReportStore implements the ReportStore port using Redis. Reports are
// written under the run id with no expiry; the store is a pure sink and never
// inspects report contents.
type RedisReportStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisReportStore creates a report store with the default key prefix.
func NewRedisReportStore(client redis.UniversalClient) *RedisReportStore {
	return &RedisReportStore{client: client}
}

// NewRedisReportStoreWithPrefix creates a report store with a custom key prefix.
// An empty prefix stores reports directly under the bare run id, matching the
// original host's layout.
func NewRedisReportStoreWithPrefix(client redis.UniversalClient, prefix string) *RedisReportStore {
	return &RedisReportStore{client: client, prefix: prefix}
}

// Save writes the serialized report under the run id. No TTL: reports live
// until overwritten or deleted. A second save for the same id overwrites
// (last-write-wins).
func (s *RedisReportStore) Save(ctx context.Context, runID string, report []byte) error {
	if runID == "" {
		return ErrRunIDRequired
	}
	return s.client.Set(ctx, s.prefix+runID, report, 0).Err()
}

// Get returns the stored report bytes, or ErrReportNotFound when absent.
func (s *RedisReportStore) Get(ctx context.Context, runID string) ([]byte, error) {
	if runID == "" {
		return nil, ErrRunIDRequired
	}
	result, err := s.client.Get(ctx, s.prefix+runID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return []byte(result), nil
}

// Exists reports whether a report is stored for the run id.
func (s *RedisReportStore) Exists(ctx context.Context, runID string) (bool, error) {
	if runID == "" {
		return false, ErrRunIDRequired
	}
	result, err := s.client.Exists(ctx, s.prefix+runID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return result > 0, nil
}

// Delete removes a stored report.
func (s *RedisReportStore) Delete(ctx context.Context, runID string) (bool, error) {
	if runID == "" {
		return false, ErrRunIDRequired
	}
	result, err := s.client.Del(ctx, s.prefix+runID).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return result > 0, nil
}

// Health checks the health of the Redis connection.
func (s *RedisReportStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
