package jobs

import (
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

// ComparisonPayload is the queued input for an async comparison of two
// stored runs.
type ComparisonPayload struct {
	LeftRunID  string                    `json:"left_run_id"`
	RightRunID string                    `json:"right_run_id"`
	Overrides  services.CompareOverrides `json:"overrides"`
}

// ComparisonJobResult is stored on the completed row; the report endpoint
// resolves ReportID to the full document.
type ComparisonJobResult struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

type comparisonJob struct {
	log *logger.Logger
	svc services.ComparisonService
}

func NewComparisonJob(baseLog *logger.Logger, svc services.ComparisonService) Handler {
	return &comparisonJob{
		log: baseLog.With("job", types.JobTypeComparison),
		svc: svc,
	}
}

func (j *comparisonJob) Type() string { return types.JobTypeComparison }

func (j *comparisonJob) Run(jc *Context) error {
	var payload ComparisonPayload
	if err := jc.DecodePayload(&payload); err != nil {
		jc.Fail("decode", err)
		return nil
	}

	jc.Progress("compare")
	report, err := j.svc.CompareRuns(jc.Ctx, payload.LeftRunID, payload.RightRunID, payload.Overrides)
	if err != nil {
		jc.Fail("compare", err)
		return nil
	}

	jc.Succeed("done", ComparisonJobResult{ReportID: report.ID, Status: report.Status})
	j.log.Info("async comparison completed",
		"job_id", jc.Job.ID, "report_id", report.ID, "status", report.Status)
	return nil
}
