package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/types"
)

// JobService is the HTTP-facing side of the async state machine: submit a
// queued row, poll status, fetch the terminal result. Workers drive the rows
// forward independently.
type JobService interface {
	Submit(ctx context.Context, jobType string, payload any) (*types.JobRun, error)
	Status(ctx context.Context, id uuid.UUID) (*types.JobRun, error)
	// Result returns the job once terminal. Non-terminal jobs yield not_ready;
	// failed jobs yield the stored failure as the original error code.
	Result(ctx context.Context, id uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) Submit(ctx context.Context, jobType string, payload any) (*types.JobRun, error) {
	if jobType != types.JobTypeExtraction && jobType != types.JobTypeComparison {
		return nil, apperr.InvalidArgument("unknown job type %q", jobType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.InvalidArgument("encode job payload: %v", err)
	}
	job := &types.JobRun{
		ID:      uuid.New(),
		JobType: jobType,
		Status:  types.JobStatusQueued,
		Payload: datatypes.JSON(raw),
	}
	if _, err := s.repo.Create(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.notify.JobTransition(ctx, job)
	s.log.Info("job submitted", "job_id", job.ID, "job_type", jobType)
	return job, nil
}

func (s *jobService) Status(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	job, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.NotFound("job %s not found", id)
	}
	return job, nil
}

func (s *jobService) Result(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	job, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Terminal() {
		return nil, apperr.NotReady("job %s is %s", id, job.Status)
	}
	if job.Status == types.JobStatusFailed {
		code := job.ErrorCode
		if code == "" {
			code = apperr.CodeInternal
		}
		return job, apperr.New(apperr.StatusForCode(code), code, errors.New(job.Error))
	}
	return job, nil
}
