package jobs

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/gatehouse/gatehouse/internal/session"
)

const accountIndexPattern = "account_sessions:*"

// SessionsPruneJob sweeps per-account session indexes, dropping tokens
// whose session records have already expired.
type SessionsPruneJob struct {
	client   *redis.Client
	sessions *session.Store
	logger   *slog.Logger
}

// NewSessionsPruneJob constructs a SessionsPruneJob.
func NewSessionsPruneJob(client *redis.Client, sessions *session.Store, logger *slog.Logger) *SessionsPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionsPruneJob{client: client, sessions: sessions, logger: logger}
}

// Handle processes TaskTypeSessionsPrune tasks.
func (j *SessionsPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var cursor uint64
	pruned := 0
	for {
		keys, next, err := j.client.Scan(ctx, cursor, accountIndexPattern, 100).Result()
		if err != nil {
			j.logger.Error("scan session indexes", slog.Any("error", err))
			return err
		}
		for _, key := range keys {
			raw := strings.TrimPrefix(key, "account_sessions:")
			principalID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			// ListTokens prunes dead members as a side effect.
			if _, err := j.sessions.ListTokens(ctx, principalID); err != nil {
				j.logger.Warn("prune session index",
					slog.Int64("principal_id", principalID), slog.Any("error", err))
				continue
			}
			pruned++
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	j.logger.Info("session indexes swept", slog.Int("indexes", pruned))
	return nil
}
