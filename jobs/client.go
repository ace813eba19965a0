package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// RecordLogin enqueues a login audit entry. Satisfies auth.LoginRecorder.
func (c *Client) RecordLogin(ctx context.Context, principalID int64, email, ip, ua string) error {
	task, err := NewLoginAuditTask(LoginAuditPayload{
		PrincipalID: principalID,
		Email:       email,
		IP:          ip,
		UserAgent:   ua,
		At:          time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
