package jobs

import (
	"encoding/base64"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/extraction"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

// ExtractionPayload is the queued input for an async extraction. Either URI
// is set (fetch then extract) or FileName+DataBase64 carry the upload.
type ExtractionPayload struct {
	FileName     string `json:"file_name,omitempty"`
	DataBase64   string `json:"data_base64,omitempty"`
	SourceSystem string `json:"source_system,omitempty"`
	URI          string `json:"uri,omitempty"`
}

// ExtractionJobResult is stored on the completed row.
type ExtractionJobResult struct {
	RunID string `json:"run_id"`
}

type extractionJob struct {
	log *logger.Logger
	svc services.ExtractionService
}

func NewExtractionJob(baseLog *logger.Logger, svc services.ExtractionService) Handler {
	return &extractionJob{
		log: baseLog.With("job", types.JobTypeExtraction),
		svc: svc,
	}
}

func (j *extractionJob) Type() string { return types.JobTypeExtraction }

func (j *extractionJob) Run(jc *Context) error {
	var payload ExtractionPayload
	if err := jc.DecodePayload(&payload); err != nil {
		jc.Fail("decode", err)
		return nil
	}

	jc.Progress("extract")
	var (
		run *types.ExtractionRun
		err error
	)
	if payload.URI != "" {
		run, err = j.svc.IngestURI(jc.Ctx, payload.URI, payload.SourceSystem)
	} else {
		data, decErr := base64.StdEncoding.DecodeString(payload.DataBase64)
		if decErr != nil {
			jc.Fail("decode", apperr.InvalidArgument("decode file data: %v", decErr))
			return nil
		}
		run, err = j.svc.ExtractSync(jc.Ctx, extraction.Input{
			FileName:     payload.FileName,
			Data:         data,
			SourceSystem: payload.SourceSystem,
		})
	}
	if err != nil {
		jc.Fail("extract", err)
		return nil
	}

	jc.Succeed("done", ExtractionJobResult{RunID: run.RunID})
	j.log.Info("async extraction completed", "job_id", jc.Job.ID, "run_id", run.RunID)
	return nil
}
