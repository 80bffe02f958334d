package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/types"
)

type ExtractionRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) (*types.ExtractionRun, error)
	GetByRunID(ctx context.Context, tx *gorm.DB, runID string) (*types.ExtractionRun, error)
	GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []string) ([]*types.ExtractionRun, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ExtractionRun, error)
}

type extractionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExtractionRunRepo(db *gorm.DB, baseLog *logger.Logger) ExtractionRunRepo {
	return &extractionRunRepo{
		db:  db,
		log: baseLog.With("repo", "ExtractionRunRepo"),
	}
}

func (r *extractionRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *extractionRunRepo) GetByRunID(ctx context.Context, tx *gorm.DB, runID string) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if runID == "" {
		return nil, nil
	}
	var run types.ExtractionRun
	err := transaction.WithContext(ctx).
		Where("run_id = ?", runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *extractionRunRepo) GetByRunIDs(ctx context.Context, tx *gorm.DB, runIDs []string) ([]*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ExtractionRun
	if len(runIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *extractionRunRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.ExtractionRun
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
