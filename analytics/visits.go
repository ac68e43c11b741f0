// Package analytics keeps per-identity visit counters. Counters are keyed by
// synthetic id, so nothing personally identifying is stored, and callers only
// record visits when analytics consent holds.
package analytics

import (
	"sync"

	"github.com/go-redis/redis"
	"github.com/golang/glog"
)

// VisitStore counts visits per synthetic id and supports erasure for
// data-subject requests.
type VisitStore interface {
	// Increment adds one visit and returns the new count.
	Increment(syntheticID string) (int64, error)

	// Visits returns the current count, zero for an unknown id.
	Visits(syntheticID string) (int64, error)

	// Delete removes all data held for the id.
	Delete(syntheticID string) error
}

// RedisVisitStore is the production VisitStore.
type RedisVisitStore struct {
	client *redis.Client
	prefix string
}

// NewRedisVisitStore connects to redis at addr. Connectivity problems show up
// on first use, not here; redis reconnects internally.
func NewRedisVisitStore(addr, password, prefix string) *RedisVisitStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisVisitStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisVisitStore) key(syntheticID string) string {
	return s.prefix + ":visits:" + syntheticID
}

func (s *RedisVisitStore) Increment(syntheticID string) (int64, error) {
	return s.client.Incr(s.key(syntheticID)).Result()
}

func (s *RedisVisitStore) Visits(syntheticID string) (int64, error) {
	count, err := s.client.Get(s.key(syntheticID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (s *RedisVisitStore) Delete(syntheticID string) error {
	return s.client.Del(s.key(syntheticID)).Err()
}

// MemoryVisitStore is an in-process VisitStore for development and tests,
// used when no redis address is configured.
type MemoryVisitStore struct {
	mu     sync.Mutex
	visits map[string]int64
}

func NewMemoryVisitStore() *MemoryVisitStore {
	glog.Warning("Analytics counters are in-memory only; configure analytics.redis_addr for persistence")
	return &MemoryVisitStore{
		visits: make(map[string]int64),
	}
}

func (s *MemoryVisitStore) Increment(syntheticID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[syntheticID]++
	return s.visits[syntheticID], nil
}

func (s *MemoryVisitStore) Visits(syntheticID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[syntheticID], nil
}

func (s *MemoryVisitStore) Delete(syntheticID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visits, syntheticID)
	return nil
}
