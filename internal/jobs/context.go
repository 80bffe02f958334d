package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

// Context is the execution handle for one claimed job. Handlers never touch
// the job_run row directly; Progress, Fail and Succeed are the only sanctioned
// transitions, and all three refuse to overwrite a terminal row.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.JobRun
	Repo   repos.JobRunRepo
	Notify services.JobNotifier
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, notify services.JobNotifier) *Context {
	return &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
}

// DecodePayload unmarshals the job payload into dst.
func (c *Context) DecodePayload(dst any) error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return apperr.InvalidArgument("job payload is empty")
	}
	if err := json.Unmarshal(c.Job.Payload, dst); err != nil {
		return apperr.InvalidArgument("decode job payload: %v", err)
	}
	return nil
}

// Progress records the current stage and refreshes the heartbeat.
func (c *Context) Progress(stage string) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	ok, _ := c.Repo.UpdateFieldsUnlessTerminal(c.Ctx, nil, c.Job.ID, map[string]interface{}{
		"stage":        stage,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if !ok {
		return
	}
	c.Job.Stage = stage
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.JobTransition(c.Ctx, c.Job)
	}
}

// Fail marks the run terminally failed, recording the stable error code so
// the result endpoint can rehydrate the original failure.
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	code := apperr.CodeOf(err)
	ok, _ := c.Repo.UpdateFieldsUnlessTerminal(c.Ctx, nil, c.Job.ID, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"stage":         stage,
		"error":         msg,
		"error_code":    code,
		"last_error_at": now,
		"locked_at":     nil,
		"updated_at":    now,
	})
	if !ok {
		return
	}
	c.Job.Status = types.JobStatusFailed
	c.Job.Stage = stage
	c.Job.Error = msg
	c.Job.ErrorCode = code
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
	c.Job.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.JobTransition(c.Ctx, c.Job)
	}
}

// Succeed marks the run terminally completed and stores the result payload.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}
	ok, _ := c.Repo.UpdateFieldsUnlessTerminal(c.Ctx, nil, c.Job.ID, map[string]interface{}{
		"status":       types.JobStatusCompleted,
		"stage":        finalStage,
		"error":        "",
		"error_code":   "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if !ok {
		return
	}
	c.Job.Status = types.JobStatusCompleted
	c.Job.Stage = finalStage
	c.Job.Error = ""
	c.Job.ErrorCode = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.JobTransition(c.Ctx, c.Job)
	}
}
