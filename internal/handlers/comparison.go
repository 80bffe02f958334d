package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/comparison"
	"github.com/docparity/docparity-backend/internal/jobs"
	"github.com/docparity/docparity-backend/internal/services"
	"github.com/docparity/docparity-backend/internal/types"
)

type ComparisonHandler struct {
	svc  services.ComparisonService
	jobs services.JobService
}

func NewComparisonHandler(svc services.ComparisonService, jobSvc services.JobService) *ComparisonHandler {
	return &ComparisonHandler{svc: svc, jobs: jobSvc}
}

type compareBody struct {
	LeftRunID           string                         `json:"left_run_id"`
	RightRunID          string                         `json:"right_run_id"`
	Left                *types.ExtractionResult        `json:"left"`
	Right               *types.ExtractionResult        `json:"right"`
	DocumentType        string                         `json:"document_type"`
	QueryPaths          []string                       `json:"query_paths"`
	SimilarityThreshold *float64                       `json:"similarity_threshold"`
	Normalization       *comparison.NormalizationRules `json:"normalization"`
}

func (b *compareBody) overrides() services.CompareOverrides {
	return services.CompareOverrides{
		DocumentType:        b.DocumentType,
		QueryPaths:          b.QueryPaths,
		SimilarityThreshold: b.SimilarityThreshold,
		Normalization:       b.Normalization,
	}
}

// POST /compare — two stored run ids, or two inline extraction results.
func (h *ComparisonHandler) Compare(c *gin.Context) {
	var body compareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.InvalidArgument("parse body: %v", err))
		return
	}

	var (
		report *types.ComparisonReport
		err    error
	)
	switch {
	case body.LeftRunID != "" && body.RightRunID != "":
		report, err = h.svc.CompareRuns(c.Request.Context(), body.LeftRunID, body.RightRunID, body.overrides())
	case body.Left != nil && body.Right != nil:
		report, err = h.svc.CompareInline(c.Request.Context(), body.Left, body.Right, body.overrides())
	default:
		err = apperr.InvalidArgument("provide left_run_id/right_run_id or inline left/right results")
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

// POST /compare/async — stored run ids only; inline payloads belong on the
// synchronous endpoint.
func (h *ComparisonHandler) CompareAsync(c *gin.Context) {
	var body compareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.InvalidArgument("parse body: %v", err))
		return
	}
	if body.LeftRunID == "" || body.RightRunID == "" {
		RespondError(c, apperr.InvalidArgument("left_run_id and right_run_id are required"))
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), types.JobTypeComparison, jobs.ComparisonPayload{
		LeftRunID:  body.LeftRunID,
		RightRunID: body.RightRunID,
		Overrides:  body.overrides(),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"job_id": job.ID, "status": job.Status})
}

// GET /compare/jobs/:id
func (h *ComparisonHandler) JobStatus(c *gin.Context) {
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

// GET /compare/jobs/:id/report
func (h *ComparisonHandler) JobReport(c *gin.Context) {
	report, err := h.resolveJobReport(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

// GET /compare/jobs/:id/report.csv
func (h *ComparisonHandler) JobReportCSV(c *gin.Context) {
	report, err := h.resolveJobReport(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	writeDiffsCSV(c, report)
}

// GET /compare/reports/:id
func (h *ComparisonHandler) GetReport(c *gin.Context) {
	report, err := h.svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

func (h *ComparisonHandler) resolveJobReport(c *gin.Context) (*types.ComparisonReport, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperr.InvalidArgument("invalid job id: %v", err)
	}
	job, err := h.jobs.Result(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	var res jobs.ComparisonJobResult
	if err := json.Unmarshal(job.Result, &res); err != nil {
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeInternal, err)
	}
	return h.svc.GetReport(c.Request.Context(), res.ReportID)
}

func writeDiffsCSV(c *gin.Context, report *types.ComparisonReport) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="report_diffs.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"report_id", "category", "path", "diff_type", "severity", "left_value", "right_value"})
	for _, d := range report.AllDiffs() {
		_ = w.Write([]string{
			report.ID,
			d.Category,
			d.Path,
			d.DiffType,
			d.Severity,
			stringifyValue(d.LeftValue),
			stringifyValue(d.RightValue),
		})
	}
	w.Flush()
}

func stringifyValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
