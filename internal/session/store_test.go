package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
	_ "github.com/gatehouse/gatehouse/testing"
)

func newStore(t *testing.T, cfg session.Config) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewStore(client, cfg, nil), mr
}

func testIdentity() *shared.Identity {
	return &shared.Identity{
		PrincipalID: 42,
		Email:       "a@x.com",
		Authorities: []string{"USER", "priv-read-item"},
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	store, _ := newStore(t, session.Config{TTL: time.Hour})

	token, err := store.Create(context.Background(), testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.PrincipalID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, []string{"USER", "priv-read-item"}, got.Authorities)
}

func TestGetUnknownTokenIsAbsent(t *testing.T) {
	store, _ := newStore(t, session.Config{TTL: time.Hour})

	got, err := store.Get(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSlidingExpiryRefreshesDeadline(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	token, err := store.Create(context.Background(), testIdentity())
	require.NoError(t, err)

	// Past the halfway mark the record only survives if reads slide the TTL.
	mr.FastForward(45 * time.Minute)
	got, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, got)

	mr.FastForward(45 * time.Minute)
	got, err = store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestExpiredSessionIsAbsent(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	token, err := store.Create(context.Background(), testIdentity())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStaleDeadlineInPayloadIsAbsent(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	stale := map[string]any{
		"principal_id":     int64(7),
		"email":            "b@x.com",
		"authorities":      []string{"USER"},
		"created_at":       time.Now().Add(-2 * time.Hour).UTC(),
		"last_accessed_at": time.Now().Add(-2 * time.Hour).UTC(),
		"expires_at":       time.Now().Add(-time.Hour).UTC(),
	}
	payload, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:stale-token", string(payload)))

	got, err := store.Get(context.Background(), "stale-token")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("session:stale-token"))
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	token, err := store.Create(context.Background(), testIdentity())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), token))
	assert.False(t, mr.Exists("session:"+token))

	// Deleting again, or deleting a token that never existed, succeeds.
	require.NoError(t, store.Delete(context.Background(), token))
	require.NoError(t, store.Delete(context.Background(), "never-existed"))
}

func TestCorruptRecordIsPurgedAndAbsent(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	corrupted := 0
	store.OnCorruptRecord(func() { corrupted++ })

	require.NoError(t, mr.Set("session:bad-token", "legacy-binary-{{garbage"))

	got, err := store.Get(context.Background(), "bad-token")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("session:bad-token"), "corrupt record must be deleted")
	assert.Equal(t, 1, corrupted)

	// A second read stays absent without re-attempting repair.
	got, err = store.Get(context.Background(), "bad-token")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, corrupted)
}

func TestStoreFailureIsNotAbsent(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour})

	token, err := store.Create(context.Background(), testIdentity())
	require.NoError(t, err)

	mr.Close()
	_, err = store.Get(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}

func TestCountAndListActive(t *testing.T) {
	store, mr := newStore(t, session.Config{TTL: time.Hour, MaxPerAccount: 3})

	id := testIdentity()
	tok1, err := store.Create(context.Background(), id)
	require.NoError(t, err)
	tok2, err := store.Create(context.Background(), id)
	require.NoError(t, err)

	count, err := store.CountActive(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tokens, err := store.ListTokens(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tok1, tok2}, tokens)

	// Dead records drop out of the index on the next count.
	mr.Del("session:" + tok1)
	count, err = store.CountActive(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTokensAreRandomUUIDs(t *testing.T) {
	store, _ := newStore(t, session.Config{TTL: time.Hour, MaxPerAccount: 10})

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		token, err := store.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		parsed, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())

		_, dup := seen[token]
		assert.False(t, dup)
		seen[token] = struct{}{}
	}
}
