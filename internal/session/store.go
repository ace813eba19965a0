// Package session implements the Redis backed session store: opaque tokens
// mapped to serialized security contexts with sliding expiry, self-healing
// deserialization and a per-account concurrent-session policy.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// Mode selects how the store reacts when an account is at its session cap.
type Mode string

const (
	// ModeBlockNew rejects a new login while existing sessions remain valid.
	ModeBlockNew Mode = "block-new"
	// ModeEvictOldest allows the new login and invalidates the account's
	// oldest session(s).
	ModeEvictOldest Mode = "evict-oldest"
)

// Config tunes the session store.
type Config struct {
	// TTL is the sliding session lifetime.
	TTL time.Duration
	// CommandTimeout bounds every Redis command issued by the store.
	CommandTimeout time.Duration
	// MaxPerAccount caps concurrent sessions per principal.
	MaxPerAccount int
	// Mode selects block-new or evict-oldest behaviour at the cap.
	Mode Mode
}

// Store persists security contexts in Redis keyed by opaque tokens.
type Store struct {
	client     *redis.Client
	ttl        time.Duration
	cmdTimeout time.Duration
	limit      int
	mode       Mode
	logger     *slog.Logger
	onCorrupt  func()
}

// record is the wire format stored under each session key.
type record struct {
	PrincipalID    int64     `json:"principal_id"`
	Email          string    `json:"email"`
	Authorities    []string  `json:"authorities"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// NewStore constructs a Store.
func NewStore(client *redis.Client, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	if cfg.MaxPerAccount <= 0 {
		cfg.MaxPerAccount = 1
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBlockNew
	}
	return &Store{
		client:     client,
		ttl:        cfg.TTL,
		cmdTimeout: cfg.CommandTimeout,
		limit:      cfg.MaxPerAccount,
		mode:       cfg.Mode,
		logger:     logger,
		onCorrupt:  func() {},
	}
}

// OnCorruptRecord registers a hook invoked whenever a stored payload fails
// to deserialize and is purged. Used for internal observability only.
func (s *Store) OnCorruptRecord(fn func()) {
	if fn != nil {
		s.onCorrupt = fn
	}
}

// TTL exposes the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func sessionKey(token string) string {
	return "session:" + token
}

func indexKey(principalID int64) string {
	return "account_sessions:" + strconv.FormatInt(principalID, 10)
}

func (s *Store) cmd(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cmdTimeout)
}

// reserveScript atomically prunes the account index, enforces the session
// cap and writes the new session payload. Returning 0 means the login must
// be blocked. Running it as one script closes the read-count-then-write
// race between concurrent logins for the same account.
var reserveScript = redis.NewScript(`
local index = KEYS[1]
local prefix = ARGV[1]
local token = ARGV[2]
local limit = tonumber(ARGV[3])
local evict = tonumber(ARGV[4])
local now = tonumber(ARGV[5])
local ttl = tonumber(ARGV[6])
local payload = ARGV[7]

local members = redis.call('ZRANGE', index, 0, -1)
for _, m in ipairs(members) do
  if redis.call('EXISTS', prefix .. m) == 0 then
    redis.call('ZREM', index, m)
  end
end

local count = redis.call('ZCARD', index)
if count >= limit then
  if evict == 0 then
    return 0
  end
  local surplus = count - limit + 1
  local oldest = redis.call('ZRANGE', index, 0, surplus - 1)
  for _, m in ipairs(oldest) do
    redis.call('DEL', prefix .. m)
    redis.call('ZREM', index, m)
  end
end

redis.call('SET', prefix .. token, payload, 'PX', ttl)
redis.call('ZADD', index, now, token)
redis.call('PEXPIRE', index, ttl)
return 1
`)

// refreshScript rewrites a session payload and pushes out both the session
// and index deadlines, but only while the session key still exists. A
// concurrent delete (logout, eviction, corrupt purge) between the read and
// the refresh therefore stays deleted instead of being recreated. The index
// deadline must slide with the session: an index that expired early would
// let the reserve script count zero live sessions and admit a login past
// the cap.
var refreshScript = redis.NewScript(`
local key = KEYS[1]
local index = KEYS[2]
local payload = ARGV[1]
local ttl = tonumber(ARGV[2])

if redis.call('EXISTS', key) == 0 then
  return 0
end
redis.call('SET', key, payload, 'PX', ttl)
redis.call('PEXPIRE', index, ttl)
return 1
`)

// pruneScript removes index members whose session keys are gone and
// returns the surviving tokens ordered oldest first.
var pruneScript = redis.NewScript(`
local index = KEYS[1]
local prefix = ARGV[1]

local members = redis.call('ZRANGE', index, 0, -1)
local live = {}
for _, m in ipairs(members) do
  if redis.call('EXISTS', prefix .. m) == 1 then
    live[#live + 1] = m
  else
    redis.call('ZREM', index, m)
  end
end
return live
`)

// Create binds the identity to a fresh session token, enforcing the
// per-account cap atomically with the write. It returns
// shared.ErrSessionLimit when the cap is reached in block-new mode.
func (s *Store) Create(ctx context.Context, id *shared.Identity) (string, error) {
	now := time.Now().UTC()
	rec := record{
		PrincipalID:    id.PrincipalID,
		Email:          id.Email,
		Authorities:    id.Authorities,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.ttl),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("session: marshal record: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	evict := 0
	if s.mode == ModeEvictOldest {
		evict = 1
	}

	cctx, cancel := s.cmd(ctx)
	defer cancel()
	res, err := reserveScript.Run(cctx, s.client,
		[]string{indexKey(id.PrincipalID)},
		"session:", token, s.limit, evict, now.UnixMilli(), s.ttl.Milliseconds(), payload,
	).Int()
	if err != nil {
		return "", fmt.Errorf("%w: reserve session: %v", shared.ErrStoreUnavailable, err)
	}
	if res == 0 {
		return "", shared.ErrSessionLimit
	}
	return token, nil
}

// Get resolves a token into the stored identity. It returns (nil, nil)
// when the session is absent, expired, or its payload does not deserialize;
// corrupt records are purged as a side effect. Store failures and timeouts
// surface as shared.ErrStoreUnavailable and never trigger the purge.
func (s *Store) Get(ctx context.Context, token string) (*shared.Identity, error) {
	cctx, cancel := s.cmd(ctx)
	defer cancel()

	data, err := s.client.Get(cctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", shared.ErrStoreUnavailable, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.purgeCorrupt(ctx, token, err)
		return nil, nil
	}

	now := time.Now().UTC()
	if now.After(rec.ExpiresAt) {
		_ = s.Delete(ctx, token)
		return nil, nil
	}

	// Sliding expiry: every successful read pushes the deadline out.
	rec.LastAccessedAt = now
	rec.ExpiresAt = now.Add(s.ttl)
	refreshed, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("session: marshal record: %w", err)
	}
	rctx, rcancel := s.cmd(ctx)
	defer rcancel()
	res, err := refreshScript.Run(rctx, s.client,
		[]string{sessionKey(token), indexKey(rec.PrincipalID)},
		refreshed, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh session: %v", shared.ErrStoreUnavailable, err)
	}
	if res == 0 {
		// Deleted between the read and the refresh.
		return nil, nil
	}

	return &shared.Identity{
		PrincipalID: rec.PrincipalID,
		Email:       rec.Email,
		Authorities: rec.Authorities,
	}, nil
}

// Delete invalidates a token. Removing an absent token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	cctx, cancel := s.cmd(ctx)
	defer cancel()

	data, err := s.client.Get(cctx, sessionKey(token)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: delete session: %v", shared.ErrStoreUnavailable, err)
	}
	if err == nil {
		var rec record
		if jerr := json.Unmarshal(data, &rec); jerr == nil {
			ictx, icancel := s.cmd(ctx)
			if zerr := s.client.ZRem(ictx, indexKey(rec.PrincipalID), token).Err(); zerr != nil {
				s.logger.Warn("session index zrem", slog.Any("error", zerr))
			}
			icancel()
		}
	}

	dctx, dcancel := s.cmd(ctx)
	defer dcancel()
	if err := s.client.Del(dctx, sessionKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: delete session: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// ListTokens returns the account's live session tokens, oldest first.
func (s *Store) ListTokens(ctx context.Context, principalID int64) ([]string, error) {
	cctx, cancel := s.cmd(ctx)
	defer cancel()

	res, err := pruneScript.Run(cctx, s.client, []string{indexKey(principalID)}, "session:").StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: list sessions: %v", shared.ErrStoreUnavailable, err)
	}
	return res, nil
}

// CountActive returns the number of live sessions held by the account.
func (s *Store) CountActive(ctx context.Context, principalID int64) (int, error) {
	tokens, err := s.ListTokens(ctx, principalID)
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// purgeCorrupt deletes a record that failed to deserialize. The failure is
// recovered locally: callers observe the session as absent.
func (s *Store) purgeCorrupt(ctx context.Context, token string, cause error) {
	s.onCorrupt()
	s.logger.Debug("purging corrupt session record",
		slog.String("token", token), slog.Any("error", cause))
	cctx, cancel := s.cmd(ctx)
	defer cancel()
	if err := s.client.Del(cctx, sessionKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("purge corrupt session", slog.Any("error", err))
	}
}

// newToken draws an unguessable session token. There is no non-random
// fallback: if the entropy source fails, session creation fails.
func newToken() (string, error) {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String(), nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
