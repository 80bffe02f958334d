package services

import (
	"context"
	"time"

	redisclient "github.com/docparity/docparity-backend/internal/clients/redis"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/types"
)

// JobNotifier receives job lifecycle transitions. Delivery is best-effort;
// the state machine in the database stays the source of truth.
type JobNotifier interface {
	JobTransition(ctx context.Context, job *types.JobRun)
}

type busNotifier struct {
	bus redisclient.JobBus
	log *logger.Logger
}

func NewBusNotifier(bus redisclient.JobBus, baseLog *logger.Logger) JobNotifier {
	return &busNotifier{bus: bus, log: baseLog.With("service", "JobNotifier")}
}

func (n *busNotifier) JobTransition(ctx context.Context, job *types.JobRun) {
	if job == nil {
		return
	}
	ev := types.JobEvent{
		JobID:     job.ID,
		JobType:   job.JobType,
		Status:    job.Status,
		Stage:     job.Stage,
		ErrorCode: job.ErrorCode,
		At:        time.Now().UTC(),
	}
	if err := n.bus.Publish(ctx, ev); err != nil {
		n.log.Warn("job event publish failed", "job_id", job.ID, "error", err)
	}
}

type nopNotifier struct{}

// NewNopNotifier is the notifier used when REDIS_ADDR is unset.
func NewNopNotifier() JobNotifier { return nopNotifier{} }

func (nopNotifier) JobTransition(context.Context, *types.JobRun) {}
