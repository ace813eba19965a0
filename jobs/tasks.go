package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLoginAudit records a successful login in the audit trail.
	TaskTypeLoginAudit = "audit:login"
	// TaskTypeSessionsPrune sweeps dead tokens out of the per-account
	// session indexes.
	TaskTypeSessionsPrune = "sessions:prune"
)

// LoginAuditPayload describes one successful login.
type LoginAuditPayload struct {
	PrincipalID int64     `json:"principal_id"`
	Email       string    `json:"email"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"user_agent"`
	At          time.Time `json:"at"`
}

// NewLoginAuditTask constructs an Asynq task for the login audit trail.
func NewLoginAuditTask(payload LoginAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLoginAudit, data), nil
}

// NewSessionsPruneTask constructs the periodic session-index sweep task.
func NewSessionsPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionsPrune, nil)
}
