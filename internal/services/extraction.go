package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/extraction"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/types"
)

// BulkItem is one slot of an index-aligned bulk response. Exactly one of
// RunID or Error is set.
type BulkItem struct {
	Filename string `json:"filename"`
	RunID    string `json:"run_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ExtractionService interface {
	ExtractSync(ctx context.Context, in extraction.Input) (*types.ExtractionRun, error)
	// ExtractBulk processes up to the configured cap of files with bounded
	// parallelism. One file's failure never aborts the rest; results come
	// back index-aligned with the inputs.
	ExtractBulk(ctx context.Context, inputs []extraction.Input) ([]BulkItem, error)
	IngestURI(ctx context.Context, uri, sourceSystem string) (*types.ExtractionRun, error)
	GetRun(ctx context.Context, runID string) (*types.ExtractionRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*types.ExtractionRun, error)
	DecodeResult(run *types.ExtractionRun) (*types.ExtractionResult, error)
}

type extractionService struct {
	db        *gorm.DB
	log       *logger.Logger
	runs      repos.ExtractionRunRepo
	extractor extraction.Extractor
	httpc     *http.Client

	bulkCap        int
	bulkWorkers    int
	maxUploadBytes int64
}

func NewExtractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	runs repos.ExtractionRunRepo,
	extractor extraction.Extractor,
	bulkCap int,
	bulkWorkers int,
	maxUploadBytes int64,
) ExtractionService {
	if bulkCap <= 0 {
		bulkCap = 50
	}
	if bulkWorkers <= 0 {
		bulkWorkers = 4
	}
	return &extractionService{
		db:             db,
		log:            baseLog.With("service", "ExtractionService"),
		runs:           runs,
		extractor:      extractor,
		httpc:          &http.Client{Timeout: 30 * time.Second},
		bulkCap:        bulkCap,
		bulkWorkers:    bulkWorkers,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *extractionService) ExtractSync(ctx context.Context, in extraction.Input) (*types.ExtractionRun, error) {
	if in.FileName == "" {
		return nil, apperr.InvalidArgument("file name is required")
	}
	if s.maxUploadBytes > 0 && int64(len(in.Data)) > s.maxUploadBytes {
		return nil, apperr.InvalidArgument("file %q exceeds the %d byte upload cap", in.FileName, s.maxUploadBytes)
	}

	result, err := s.extractor.Extract(ctx, in)
	if err != nil {
		return nil, apperr.ExtractionFailed(fmt.Errorf("extract %q: %w", in.FileName, err))
	}
	if err := result.Validate(); err != nil {
		return nil, apperr.ExtractionFailed(fmt.Errorf("extractor produced invalid result for %q: %w", in.FileName, err))
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	row := &types.ExtractionRun{
		RunID:            result.Provenance.RunID,
		FileName:         result.Document.TechnicalMetadata.FileName,
		MimeType:         result.Document.TechnicalMetadata.MimeType,
		FileSizeBytes:    result.Document.TechnicalMetadata.FileSizeBytes,
		HashSHA256:       result.Document.TechnicalMetadata.HashSHA256,
		SourceSystem:     in.SourceSystem,
		SourceURI:        in.SourceURI,
		ExtractorName:    result.Provenance.ExtractorName,
		ExtractorVersion: result.Provenance.ExtractorVersion,
		Result:           datatypes.JSON(raw),
	}
	if _, err := s.runs.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	s.log.Info("extraction run recorded", "run_id", row.RunID, "file_name", row.FileName, "mime_type", row.MimeType)
	return row, nil
}

func (s *extractionService) ExtractBulk(ctx context.Context, inputs []extraction.Input) ([]BulkItem, error) {
	if len(inputs) == 0 {
		return nil, apperr.InvalidArgument("no files provided")
	}
	if len(inputs) > s.bulkCap {
		return nil, apperr.InvalidArgument("bulk request holds %d files, cap is %d", len(inputs), s.bulkCap)
	}

	items := make([]BulkItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulkWorkers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			items[i].Filename = inputs[i].FileName
			run, err := s.ExtractSync(gctx, inputs[i])
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].RunID = run.RunID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *extractionService) IngestURI(ctx context.Context, uri, sourceSystem string) (*types.ExtractionRun, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, apperr.InvalidArgument("parse uri: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, apperr.InvalidArgument("unsupported uri scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, apperr.InvalidArgument("build request: %v", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, apperr.ExtractionFailed(fmt.Errorf("fetch %q: %w", uri, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.ExtractionFailed(fmt.Errorf("fetch %q: status %d", uri, resp.StatusCode))
	}

	reader := io.Reader(resp.Body)
	if s.maxUploadBytes > 0 {
		reader = io.LimitReader(resp.Body, s.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperr.ExtractionFailed(fmt.Errorf("read %q: %w", uri, err))
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, apperr.InvalidArgument("uri content exceeds the %d byte cap", s.maxUploadBytes)
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}
	return s.ExtractSync(ctx, extraction.Input{
		FileName:     name,
		Data:         data,
		SourceSystem: sourceSystem,
		SourceURI:    uri,
	})
}

func (s *extractionService) GetRun(ctx context.Context, runID string) (*types.ExtractionRun, error) {
	run, err := s.runs.GetByRunID(ctx, nil, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperr.NotFound("extraction run %q not found", runID)
	}
	return run, nil
}

func (s *extractionService) ListRuns(ctx context.Context, limit, offset int) ([]*types.ExtractionRun, error) {
	return s.runs.List(ctx, nil, limit, offset)
}

func (s *extractionService) DecodeResult(run *types.ExtractionRun) (*types.ExtractionResult, error) {
	if run == nil {
		return nil, fmt.Errorf("nil run")
	}
	var result types.ExtractionResult
	if err := json.Unmarshal(run.Result, &result); err != nil {
		return nil, fmt.Errorf("decode result for run %q: %w", run.RunID, err)
	}
	return &result, nil
}
