// AngelaMos | 2026
// revocation_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))
	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already expired tokens are not stored")
}

func TestMemoryRevocationStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()
	base := time.Now()
	store.now = func() time.Time { return base }

	require.NoError(t, store.Revoke(ctx, "short", base.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "long", base.Add(time.Hour)))

	store.now = func() time.Time { return base.Add(10 * time.Minute) }

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked, "entry past its expiry no longer counts")

	assert.Equal(t, 1, store.Sweep())

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	revoked, err = store.IsRevoked(ctx, "long")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryRevocationStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("jti-%d", i)
			assert.NoError(t, store.Revoke(ctx, id, exp))
			revoked, err := store.IsRevoked(ctx, id)
			assert.NoError(t, err)
			assert.True(t, revoked)
		}(i)
	}
	wg.Wait()

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestMemoryRevocationStoreRunStopsOnCancel(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
