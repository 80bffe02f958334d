package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/types"
)

// LinkWithReport is the read shape for a link: the row plus its materialized
// comparison report.
type LinkWithReport struct {
	Link   *types.DocumentLink     `json:"link"`
	Report *types.ComparisonReport `json:"report,omitempty"`
}

type LinkService interface {
	// CreateLink associates two runs and materializes a comparison report for
	// the pair. Creation is idempotent by (source, target): repeats return
	// the existing link and report rather than duplicating either.
	CreateLink(ctx context.Context, sourceRunID, targetRunID, label string) (*LinkWithReport, error)
	GetLink(ctx context.Context, id uuid.UUID) (*LinkWithReport, error)
	ListLinks(ctx context.Context, limit, offset int) ([]*types.DocumentLink, error)
}

type linkService struct {
	db      *gorm.DB
	log     *logger.Logger
	links   repos.DocumentLinkRepo
	runs    repos.ExtractionRunRepo
	compare ComparisonService
}

func NewLinkService(
	db *gorm.DB,
	baseLog *logger.Logger,
	links repos.DocumentLinkRepo,
	runs repos.ExtractionRunRepo,
	compare ComparisonService,
) LinkService {
	return &linkService{
		db:      db,
		log:     baseLog.With("service", "LinkService"),
		links:   links,
		runs:    runs,
		compare: compare,
	}
}

func (s *linkService) CreateLink(ctx context.Context, sourceRunID, targetRunID, label string) (*LinkWithReport, error) {
	if sourceRunID == "" || targetRunID == "" {
		return nil, apperr.InvalidArgument("source_run_id and target_run_id are required")
	}
	if sourceRunID == targetRunID {
		return nil, apperr.InvalidArgument("cannot link run %q to itself", sourceRunID)
	}
	for _, runID := range []string{sourceRunID, targetRunID} {
		run, err := s.runs.GetByRunID(ctx, nil, runID)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, apperr.InvalidArgument("unknown run %q", runID)
		}
	}
	if label == "" {
		label = "related"
	}

	// Fast path: the pair already has a link and a report.
	if existing, err := s.links.GetByPair(ctx, nil, sourceRunID, targetRunID); err != nil {
		return nil, err
	} else if existing != nil && existing.ComparisonReportID != "" {
		return s.withReport(ctx, existing)
	}

	link := &types.DocumentLink{
		ID:          uuid.New(),
		SourceRunID: sourceRunID,
		TargetRunID: targetRunID,
		Label:       label,
	}
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		link, created, txErr = s.links.CreateIfAbsent(ctx, tx, link)
		if txErr != nil {
			return txErr
		}
		if !created {
			return nil
		}
		// The insert winner materializes the report before committing, so a
		// concurrent create blocked on the unique pair index reads the row
		// with its report already attached. One report per pair.
		report, txErr := s.compare.MaterializeForPair(ctx, tx, sourceRunID, targetRunID)
		if txErr != nil {
			return txErr
		}
		if txErr = s.links.SetReportID(ctx, tx, link.ID, report.ID); txErr != nil {
			return txErr
		}
		link.ComparisonReportID = report.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if link.ComparisonReportID == "" {
		// A pre-existing row without a report (the winner rolled back after
		// we read it): attach one now, first writer wins.
		report, err := s.compare.MaterializeForPair(ctx, nil, sourceRunID, targetRunID)
		if err != nil {
			return nil, err
		}
		if err := s.links.SetReportID(ctx, nil, link.ID, report.ID); err != nil {
			return nil, err
		}
		if refreshed, err := s.links.GetByID(ctx, nil, link.ID); err != nil {
			return nil, err
		} else if refreshed != nil {
			link = refreshed
		}
	}
	if created {
		s.log.Info("link created", "link_id", link.ID,
			"source_run_id", sourceRunID, "target_run_id", targetRunID, "report_id", link.ComparisonReportID)
	}
	return s.withReport(ctx, link)
}

func (s *linkService) GetLink(ctx context.Context, id uuid.UUID) (*LinkWithReport, error) {
	link, err := s.links.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.NotFound("link %s not found", id)
	}
	return s.withReport(ctx, link)
}

func (s *linkService) ListLinks(ctx context.Context, limit, offset int) ([]*types.DocumentLink, error) {
	return s.links.List(ctx, nil, limit, offset)
}

func (s *linkService) withReport(ctx context.Context, link *types.DocumentLink) (*LinkWithReport, error) {
	out := &LinkWithReport{Link: link}
	if link.ComparisonReportID == "" {
		return out, nil
	}
	report, err := s.compare.GetReport(ctx, link.ComparisonReportID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return out, nil
		}
		return nil, err
	}
	out.Report = report
	return out, nil
}
