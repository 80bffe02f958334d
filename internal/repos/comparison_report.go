package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/types"
)

type ComparisonReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ComparisonReportRow) (*types.ComparisonReportRow, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.ComparisonReportRow, error)
	GetByPair(ctx context.Context, tx *gorm.DB, leftRunID, rightRunID string) (*types.ComparisonReportRow, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ComparisonReportRow, error)
}

type comparisonReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComparisonReportRepo(db *gorm.DB, baseLog *logger.Logger) ComparisonReportRepo {
	return &comparisonReportRepo{
		db:  db,
		log: baseLog.With("repo", "ComparisonReportRepo"),
	}
}

func (r *comparisonReportRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ComparisonReportRow) (*types.ComparisonReportRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *comparisonReportRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.ComparisonReportRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil, nil
	}
	var row types.ComparisonReportRow
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByPair returns the newest report for the exact (left, right) ordering.
func (r *comparisonReportRepo) GetByPair(ctx context.Context, tx *gorm.DB, leftRunID, rightRunID string) (*types.ComparisonReportRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if leftRunID == "" || rightRunID == "" {
		return nil, nil
	}
	var row types.ComparisonReportRow
	err := transaction.WithContext(ctx).
		Where("left_run_id = ? AND right_run_id = ?", leftRunID, rightRunID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *comparisonReportRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.ComparisonReportRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.ComparisonReportRow
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
