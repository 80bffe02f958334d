package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

// Worker runs N claim loops against the job_run table. Each loop claims the
// oldest runnable row, dispatches it to the registered handler, and
// heartbeats while the handler runs. Handler panics become failed rows, not
// dead workers.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *Registry
	notify   services.JobNotifier

	count        int
	pollInterval time.Duration
	staleRunning time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *Registry, notify services.JobNotifier, count int) *Worker {
	if count <= 0 {
		count = 2
	}
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "JobWorker"),
		repo:         repo,
		registry:     registry,
		notify:       notify,
		count:        count,
		pollInterval: 1 * time.Second,
		staleRunning: 2 * time.Minute,
	}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		go w.loop(ctx, i)
	}
}

func (w *Worker) loop(ctx context.Context, idx int) {
	log := w.log.With("worker", idx)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(ctx, nil, w.staleRunning)
			if err != nil {
				log.Warn("claim failed", "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.dispatch(ctx, log, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, log *logger.Logger, job *types.JobRun) {
	jc := NewContext(ctx, w.db, job, w.repo, w.notify)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		log.Warn("no handler registered", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-t.C:
				if err := w.repo.Heartbeat(hbCtx, nil, job.ID); err != nil {
					log.Warn("heartbeat failed", "job_id", job.ID, "error", err)
				}
			}
		}
	}()
	defer stopHeartbeat()

	defer func() {
		if r := recover(); r != nil {
			log.Error("job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
			jc.Fail("panic", fmt.Errorf("handler panic: %v", r))
		}
	}()
	if err := h.Run(jc); err != nil {
		// handlers normally Fail() themselves with a stage; this is the
		// fallback for returned errors
		jc.Fail("run", err)
	}
}
