package handlers

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/extraction"
	"github.com/docparity/docparity-backend/internal/jobs"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

type ExtractionHandler struct {
	svc  services.ExtractionService
	jobs services.JobService
}

func NewExtractionHandler(svc services.ExtractionService, jobSvc services.JobService) *ExtractionHandler {
	return &ExtractionHandler{svc: svc, jobs: jobSvc}
}

type extractBody struct {
	FileName     string `json:"file_name"`
	DataBase64   string `json:"data_base64"`
	SourceSystem string `json:"source_system"`
}

// readInput accepts either a multipart upload under "file" or a JSON body
// with base64 content.
func (h *ExtractionHandler) readInput(c *gin.Context) (extraction.Input, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return extraction.Input{}, apperr.InvalidArgument("open upload: %v", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return extraction.Input{}, apperr.InvalidArgument("read upload: %v", err)
		}
		return extraction.Input{
			FileName:     fh.Filename,
			Data:         data,
			SourceSystem: c.PostForm("source_system"),
		}, nil
	}

	var body extractBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return extraction.Input{}, apperr.InvalidArgument("parse body: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(body.DataBase64)
	if err != nil {
		return extraction.Input{}, apperr.InvalidArgument("decode data_base64: %v", err)
	}
	return extraction.Input{
		FileName:     body.FileName,
		Data:         data,
		SourceSystem: body.SourceSystem,
	}, nil
}

// POST /extract/sync
func (h *ExtractionHandler) ExtractSync(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	run, err := h.svc.ExtractSync(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// POST /extract/async
func (h *ExtractionHandler) ExtractAsync(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), types.JobTypeExtraction, jobs.ExtractionPayload{
		FileName:     in.FileName,
		DataBase64:   base64.StdEncoding.EncodeToString(in.Data),
		SourceSystem: in.SourceSystem,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"job_id": job.ID, "status": job.Status})
}

// POST /extract/bulk
func (h *ExtractionHandler) ExtractBulk(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, apperr.InvalidArgument("parse multipart form: %v", err))
		return
	}
	files := form.File["files"]
	inputs := make([]extraction.Input, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, apperr.InvalidArgument("open %q: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			RespondError(c, apperr.InvalidArgument("read %q: %v", fh.Filename, err))
			return
		}
		inputs = append(inputs, extraction.Input{FileName: fh.Filename, Data: data})
	}

	items, err := h.svc.ExtractBulk(c.Request.Context(), inputs)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": items})
}

type ingestURIBody struct {
	URI          string `json:"uri"`
	SourceSystem string `json:"source_system"`
}

// POST /ingest/uri
func (h *ExtractionHandler) IngestURI(c *gin.Context) {
	var body ingestURIBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.InvalidArgument("parse body: %v", err))
		return
	}
	run, err := h.svc.IngestURI(c.Request.Context(), body.URI, body.SourceSystem)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /extract/jobs/:id
func (h *ExtractionHandler) JobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.InvalidArgument("invalid job id: %v", err))
		return
	}
	job, err := h.jobs.Status(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /extract/jobs/:id/result
func (h *ExtractionHandler) JobResult(c *gin.Context) {
	run, err := h.resolveJobRun(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /extract/jobs/:id/result.csv
func (h *ExtractionHandler) JobResultCSV(c *gin.Context) {
	run, err := h.resolveJobRun(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	writeRunsCSV(c, []*types.ExtractionRun{run})
}

// GET /extract/results/export.csv
func (h *ExtractionHandler) ExportCSV(c *gin.Context) {
	limit, offset := pagination(c)
	runs, err := h.svc.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	writeRunsCSV(c, runs)
}

// GET /history
func (h *ExtractionHandler) History(c *gin.Context) {
	limit, offset := pagination(c)
	runs, err := h.svc.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	summaries := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, gin.H{
			"run_id":          run.RunID,
			"file_name":       run.FileName,
			"mime_type":       run.MimeType,
			"file_size_bytes": run.FileSizeBytes,
			"hash_sha256":     run.HashSHA256,
			"extractor_name":  run.ExtractorName,
			"created_at":      run.CreatedAt,
		})
	}
	RespondOK(c, gin.H{"runs": summaries})
}

func (h *ExtractionHandler) resolveJobRun(c *gin.Context) (*types.ExtractionRun, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperr.InvalidArgument("invalid job id: %v", err)
	}
	job, err := h.jobs.Result(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	var res jobs.ExtractionJobResult
	if err := json.Unmarshal(job.Result, &res); err != nil {
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeInternal, err)
	}
	return h.svc.GetRun(c.Request.Context(), res.RunID)
}

func writeRunsCSV(c *gin.Context, runs []*types.ExtractionRun) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="extraction_runs.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"run_id", "file_name", "mime_type", "file_size_bytes", "hash_sha256", "extractor_name", "extractor_version", "created_at"})
	for _, run := range runs {
		_ = w.Write([]string{
			run.RunID,
			run.FileName,
			run.MimeType,
			strconv.FormatInt(run.FileSizeBytes, 10),
			run.HashSHA256,
			run.ExtractorName,
			run.ExtractorVersion,
			run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	w.Flush()
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
