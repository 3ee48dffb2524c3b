// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records access tokens invalidated before their natural
// expiry. Entries only need to outlive the token they revoke.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Len(ctx context.Context) (int, error)
}

// RedisRevocationStore shares revocations across processes. Redis key TTLs
// clear entries once the token would have expired anyway.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRevocationStore stores one key per token id under keyPrefix.
func NewRedisRevocationStore(client *redis.Client, keyPrefix string) *RedisRevocationStore {
	return &RedisRevocationStore{
		client: client,
		prefix: keyPrefix,
		now:    time.Now,
	}
}

func (s *RedisRevocationStore) Revoke(
	ctx context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *RedisRevocationStore) IsRevoked(
	ctx context.Context,
	tokenID string,
) (bool, error) {
	exists, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *RedisRevocationStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return 0, fmt.Errorf("scan blacklist: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// MemoryRevocationStore keeps revocations in process memory. Revocations are
// lost on restart, so it suits single-instance deployments only.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(
	_ context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	if !expiresAt.After(s.now()) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.entries[tokenID]; !ok || expiresAt.After(current) {
		s.entries[tokenID] = expiresAt
	}

	return nil
}

func (s *MemoryRevocationStore) IsRevoked(
	_ context.Context,
	tokenID string,
) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.entries[tokenID]
	if !ok {
		return false, nil
	}

	return expiresAt.After(s.now()), nil
}

func (s *MemoryRevocationStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}

// Sweep drops entries whose tokens have expired and reports how many went.
func (s *MemoryRevocationStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, expiresAt := range s.entries {
		if !expiresAt.After(now) {
			delete(s.entries, id)
			removed++
		}
	}

	return removed
}

// Run sweeps on every tick until ctx is cancelled.
func (s *MemoryRevocationStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				slog.Debug("swept expired revocations", "removed", removed)
			}
		}
	}
}
