package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginAuditWriter persists login audit entries in PostgreSQL.
type LoginAuditWriter struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLoginAuditWriter constructs a LoginAuditWriter.
func NewLoginAuditWriter(pool *pgxpool.Pool, logger *slog.Logger) *LoginAuditWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginAuditWriter{pool: pool, logger: logger}
}

// Handle processes TaskTypeLoginAudit tasks.
func (w *LoginAuditWriter) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LoginAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	_, err := w.pool.Exec(ctx,
		`INSERT INTO login_audit (account_id, email, ip, user_agent, logged_in_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		payload.PrincipalID, payload.Email, payload.IP, payload.UserAgent, payload.At,
	)
	if err != nil {
		w.logger.Error("write login audit", slog.Any("error", err))
		return err
	}
	return nil
}
