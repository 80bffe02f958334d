package types

import (
	"time"

	"github.com/google/uuid"
)

// JobEvent is one job lifecycle transition, published for external observers.
type JobEvent struct {
	JobID     uuid.UUID `json:"job_id"`
	JobType   string    `json:"job_type"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	At        time.Time `json:"at"`
}
