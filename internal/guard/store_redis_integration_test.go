//go:build integration

package guard

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Run with: go test -tags=integration -timeout 120s ./internal/guard/...
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := NewRedisStore(newRedisClient(t))

	loaded, err := store.Load(ctx, "candidate")
	require.NoError(t, err)
	require.Nil(t, loaded, "empty store must load nothing")

	session := Session{
		Credential: "token-abc",
		Identity: Identity{
			ID:       42,
			Username: "candidate",
			RealName: "Zhang San",
			Role:     RoleUser,
		},
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err = store.Load(ctx, "candidate")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, session, *loaded)

	// Sessions are keyed per username.
	other, err := store.Load(ctx, "someone-else")
	require.NoError(t, err)
	require.Nil(t, other)

	// Saving again overwrites, it never appends.
	session.Identity.Role = RoleAdmin
	require.NoError(t, store.Save(ctx, session))
	loaded, err = store.Load(ctx, "candidate")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, loaded.Identity.Role)

	require.NoError(t, store.Clear(ctx, "candidate"))
	loaded, err = store.Load(ctx, "candidate")
	require.NoError(t, err)
	require.Nil(t, loaded)

	// Clear on an already empty store is fine.
	require.NoError(t, store.Clear(ctx, "candidate"))
}

func TestRedisStoreSurvivesReconnect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client := newRedisClient(t)

	err := NewRedisStore(client).Save(ctx, Session{
		Credential: "token-abc",
		Identity:   Identity{ID: 7, Username: "candidate", Role: RoleUser},
	})
	require.NoError(t, err)

	// A fresh store over the same backend sees the session, which is
	// the point of keeping it in redis at all.
	loaded, err := NewRedisStore(client).Load(ctx, "candidate")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, int64(7), loaded.Identity.ID)
}
