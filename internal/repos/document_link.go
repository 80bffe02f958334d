package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/types"
)

type DocumentLinkRepo interface {
	// CreateIfAbsent inserts the link unless the (source, target) pair already
	// exists, and returns the surviving row either way. The bool reports
	// whether this call inserted the row.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, link *types.DocumentLink) (*types.DocumentLink, bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DocumentLink, error)
	GetByPair(ctx context.Context, tx *gorm.DB, sourceRunID, targetRunID string) (*types.DocumentLink, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.DocumentLink, error)
	SetReportID(ctx context.Context, tx *gorm.DB, id uuid.UUID, reportID string) error
}

type documentLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentLinkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentLinkRepo {
	return &documentLinkRepo{
		db:  db,
		log: baseLog.With("repo", "DocumentLinkRepo"),
	}
}

func (r *documentLinkRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, link *types.DocumentLink) (*types.DocumentLink, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if link == nil {
		return nil, false, nil
	}
	// The unique pair index absorbs concurrent creates; losers read the row
	// the winner inserted.
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_run_id"}, {Name: "target_run_id"}},
			DoNothing: true,
		}).
		Create(link)
	if res.Error != nil {
		return nil, false, res.Error
	}
	row, err := r.GetByPair(ctx, transaction, link.SourceRunID, link.TargetRunID)
	if err != nil {
		return nil, false, err
	}
	return row, res.RowsAffected > 0, nil
}

func (r *documentLinkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DocumentLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var link types.DocumentLink
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *documentLinkRepo) GetByPair(ctx context.Context, tx *gorm.DB, sourceRunID, targetRunID string) (*types.DocumentLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if sourceRunID == "" || targetRunID == "" {
		return nil, nil
	}
	var link types.DocumentLink
	err := transaction.WithContext(ctx).
		Where("source_run_id = ? AND target_run_id = ?", sourceRunID, targetRunID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *documentLinkRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.DocumentLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.DocumentLink
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentLinkRepo) SetReportID(ctx context.Context, tx *gorm.DB, id uuid.UUID, reportID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || reportID == "" {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.DocumentLink{}).
		Where("id = ? AND (comparison_report_id = '' OR comparison_report_id IS NULL)", id).
		Update("comparison_report_id", reportID).Error
}
