package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentLink is a user-created association between two runs. The unique
// pair index makes link creation idempotent by (source, target) key.
type DocumentLink struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceRunID        string    `gorm:"column:source_run_id;not null;uniqueIndex:idx_document_link_pair" json:"source_run_id"`
	TargetRunID        string    `gorm:"column:target_run_id;not null;uniqueIndex:idx_document_link_pair" json:"target_run_id"`
	Label              string    `gorm:"column:label;not null;default:'related'" json:"label"`
	ComparisonReportID string    `gorm:"column:comparison_report_id" json:"comparison_report_id,omitempty"`
	CreatedAt          time.Time `gorm:"not null;index" json:"created_at"`
}

func (DocumentLink) TableName() string { return "document_link" }
