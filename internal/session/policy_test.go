package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
)

func TestBlockNewRejectsSecondLogin(t *testing.T) {
	store, _ := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeBlockNew,
	})

	id := testIdentity()
	first, err := store.Create(context.Background(), id)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSessionLimit)

	// The original session stays valid.
	got, err := store.Get(context.Background(), first)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestBlockNewAllowsLoginAfterLogout(t *testing.T) {
	store, _ := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeBlockNew,
	})

	id := testIdentity()
	first, err := store.Create(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), first))

	_, err = store.Create(context.Background(), id)
	require.NoError(t, err)
}

func TestEvictOldestInvalidatesPreviousSession(t *testing.T) {
	store, _ := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeEvictOldest,
	})

	id := testIdentity()
	first, err := store.Create(context.Background(), id)
	require.NoError(t, err)

	second, err := store.Create(context.Background(), id)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), first)
	require.NoError(t, err)
	assert.Nil(t, got, "evicted session must resolve to absent")

	got, err = store.Get(context.Background(), second)
	require.NoError(t, err)
	assert.NotNil(t, got)

	count, err := store.CountActive(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLimitDoesNotCrossAccounts(t *testing.T) {
	store, _ := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeBlockNew,
	})

	_, err := store.Create(context.Background(), &shared.Identity{PrincipalID: 1, Email: "a@x.com"})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), &shared.Identity{PrincipalID: 2, Email: "b@x.com"})
	require.NoError(t, err)
}

func TestConcurrentLoginsNeverExceedCap(t *testing.T) {
	store, _ := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeBlockNew,
	})

	id := testIdentity()
	const attempts = 16

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(context.Background(), id); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one concurrent login may win")

	count, err := store.CountActive(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCapHoldsAfterSlidingRefresh(t *testing.T) {
	store, mr := newStore(t, session.Config{
		TTL:           time.Hour,
		MaxPerAccount: 1,
		Mode:          session.ModeBlockNew,
	})

	id := testIdentity()
	first, err := store.Create(context.Background(), id)
	require.NoError(t, err)

	// Slide the session past its creation-time deadline. The account index
	// must slide with it, or the cap check would see zero live sessions.
	mr.FastForward(45 * time.Minute)
	got, err := store.Get(context.Background(), first)
	require.NoError(t, err)
	require.NotNil(t, got)

	mr.FastForward(30 * time.Minute)
	got, err = store.Get(context.Background(), first)
	require.NoError(t, err)
	require.NotNil(t, got, "refreshed session must outlive its original deadline")

	_, err = store.Create(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrSessionLimit)

	count, err := store.CountActive(context.Background(), id.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
