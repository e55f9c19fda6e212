package oauth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(state string, expiresAt time.Time) oauth.StateRecord {
	return oauth.StateRecord{
		State:        state,
		Provider:     identity.ProviderGoogle,
		CodeVerifier: "verifier",
		RedirectURI:  "https://app.example.com/callback",
		CreatedAt:    expiresAt.Add(-10 * time.Minute),
		ExpiresAt:    expiresAt,
	}
}

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		store := oauth.NewMemoryStateStore()
		record := testRecord("state-1", time.Now().Add(10*time.Minute))
		require.NoError(t, store.Save(ctx, record))

		got, err := store.Get(ctx, "state-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record, *got)

		// Get does not consume
		got, err = store.Get(ctx, "state-1")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("unknown state is nil nil", func(t *testing.T) {
		store := oauth.NewMemoryStateStore()

		got, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.Consume(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("consume is single use", func(t *testing.T) {
		store := oauth.NewMemoryStateStore()
		require.NoError(t, store.Save(ctx, testRecord("state-1", time.Now().Add(10*time.Minute))))

		first, err := store.Consume(ctx, "state-1")
		require.NoError(t, err)
		assert.NotNil(t, first)

		second, err := store.Consume(ctx, "state-1")
		require.NoError(t, err)
		assert.Nil(t, second)
	})

	t.Run("concurrent consume yields exactly one winner", func(t *testing.T) {
		store := oauth.NewMemoryStateStore()
		require.NoError(t, store.Save(ctx, testRecord("state-1", time.Now().Add(10*time.Minute))))

		const attempts = 32
		var wg sync.WaitGroup
		winners := make(chan *oauth.StateRecord, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				record, err := store.Consume(ctx, "state-1")
				assert.NoError(t, err)
				if record != nil {
					winners <- record
				}
			}()
		}

		wg.Wait()
		close(winners)
		assert.Len(t, winners, 1)
	})

	t.Run("purge drops expired records only", func(t *testing.T) {
		store := oauth.NewMemoryStateStore()
		now := time.Now()

		require.NoError(t, store.Save(ctx, testRecord("expired", now.Add(-time.Minute))))
		require.NoError(t, store.Save(ctx, testRecord("live", now.Add(time.Minute))))

		assert.Equal(t, 1, store.PurgeExpired(now))

		gone, err := store.Get(ctx, "expired")
		require.NoError(t, err)
		assert.Nil(t, gone)

		kept, err := store.Get(ctx, "live")
		require.NoError(t, err)
		assert.NotNil(t, kept)
	})
}
