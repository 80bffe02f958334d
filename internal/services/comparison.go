package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/comparison"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/types"
)

// CompareOverrides are the per-request knobs a caller may set on top of the
// configured defaults.
type CompareOverrides struct {
	DocumentType        string                         `json:"document_type,omitempty"`
	QueryPaths          []string                       `json:"query_paths,omitempty"`
	SimilarityThreshold *float64                       `json:"similarity_threshold,omitempty"`
	Normalization       *comparison.NormalizationRules `json:"normalization,omitempty"`
}

type ComparisonService interface {
	// CompareRuns compares two stored runs and persists the report.
	CompareRuns(ctx context.Context, leftRunID, rightRunID string, ov CompareOverrides) (*types.ComparisonReport, error)
	// CompareInline compares caller-supplied results and persists the report.
	CompareInline(ctx context.Context, left, right *types.ExtractionResult, ov CompareOverrides) (*types.ComparisonReport, error)
	GetReport(ctx context.Context, id string) (*types.ComparisonReport, error)
	// MaterializeForPair returns the newest stored report for the pair,
	// computing and persisting one with default options when none exists.
	// Reads and writes go through tx when supplied, so a caller can serialize
	// materialization with its own inserts.
	MaterializeForPair(ctx context.Context, tx *gorm.DB, leftRunID, rightRunID string) (*types.ComparisonReport, error)
}

type comparisonService struct {
	db      *gorm.DB
	log     *logger.Logger
	runs    repos.ExtractionRunRepo
	reports repos.ComparisonReportRepo
	runsSvc ExtractionService
	engine  *comparison.Engine
}

func NewComparisonService(
	db *gorm.DB,
	baseLog *logger.Logger,
	runs repos.ExtractionRunRepo,
	reports repos.ComparisonReportRepo,
	runsSvc ExtractionService,
	engine *comparison.Engine,
) ComparisonService {
	return &comparisonService{
		db:      db,
		log:     baseLog.With("service", "ComparisonService"),
		runs:    runs,
		reports: reports,
		runsSvc: runsSvc,
		engine:  engine,
	}
}

func (s *comparisonService) CompareRuns(ctx context.Context, leftRunID, rightRunID string, ov CompareOverrides) (*types.ComparisonReport, error) {
	left, err := s.loadResult(ctx, nil, leftRunID)
	if err != nil {
		return nil, err
	}
	right, err := s.loadResult(ctx, nil, rightRunID)
	if err != nil {
		return nil, err
	}
	return s.compare(ctx, nil, left, right, ov)
}

func (s *comparisonService) CompareInline(ctx context.Context, left, right *types.ExtractionResult, ov CompareOverrides) (*types.ComparisonReport, error) {
	return s.compare(ctx, nil, left, right, ov)
}

func (s *comparisonService) MaterializeForPair(ctx context.Context, tx *gorm.DB, leftRunID, rightRunID string) (*types.ComparisonReport, error) {
	row, err := s.reports.GetByPair(ctx, tx, leftRunID, rightRunID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return decodeReport(row)
	}
	left, err := s.loadResult(ctx, tx, leftRunID)
	if err != nil {
		return nil, err
	}
	right, err := s.loadResult(ctx, tx, rightRunID)
	if err != nil {
		return nil, err
	}
	return s.compare(ctx, tx, left, right, CompareOverrides{})
}

func (s *comparisonService) compare(ctx context.Context, tx *gorm.DB, left, right *types.ExtractionResult, ov CompareOverrides) (*types.ComparisonReport, error) {
	report, err := s.engine.Compare(comparison.Request{
		Left:                left,
		Right:               right,
		DocumentType:        ov.DocumentType,
		QueryPaths:          ov.QueryPaths,
		SimilarityThreshold: ov.SimilarityThreshold,
		Normalization:       ov.Normalization,
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.ComparisonFailed(err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	row := &types.ComparisonReportRow{
		ID:            report.ID,
		Status:        report.Status,
		LeftRunID:     report.LeftRunID,
		RightRunID:    report.RightRunID,
		DocumentLevel: report.SimilarityScores.DocumentLevel,
		Report:        datatypes.JSON(raw),
		CreatedAt:     report.CreatedAt,
	}
	if _, err := s.reports.Create(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	s.log.Info("comparison report recorded",
		"report_id", report.ID, "status", report.Status,
		"left_run_id", report.LeftRunID, "right_run_id", report.RightRunID)
	return report, nil
}

func (s *comparisonService) GetReport(ctx context.Context, id string) (*types.ComparisonReport, error) {
	row, err := s.reports.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFound("comparison report %q not found", id)
	}
	return decodeReport(row)
}

func (s *comparisonService) loadResult(ctx context.Context, tx *gorm.DB, runID string) (*types.ExtractionResult, error) {
	if runID == "" {
		return nil, apperr.InvalidArgument("run id is required")
	}
	run, err := s.runs.GetByRunID(ctx, tx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound("extraction run %q not found", runID)
	}
	return s.runsSvc.DecodeResult(run)
}

func decodeReport(row *types.ComparisonReportRow) (*types.ComparisonReport, error) {
	var report types.ComparisonReport
	if err := json.Unmarshal(row.Report, &report); err != nil {
		return nil, fmt.Errorf("decode report %q: %w", row.ID, err)
	}
	return &report, nil
}
