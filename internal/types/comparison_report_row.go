package types

import (
	"time"

	"gorm.io/datatypes"
)

// ComparisonReportRow persists an assembled ComparisonReport. Rows are
// write-once; the scalar columns mirror the report for pair lookups.
type ComparisonReportRow struct {
	ID            string         `gorm:"column:id;primaryKey" json:"id"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	LeftRunID     string         `gorm:"column:left_run_id;index:idx_comparison_report_pair" json:"left_run_id,omitempty"`
	RightRunID    string         `gorm:"column:right_run_id;index:idx_comparison_report_pair" json:"right_run_id,omitempty"`
	DocumentLevel float64        `gorm:"column:document_level" json:"document_level"`
	Report        datatypes.JSON `gorm:"column:report;type:jsonb" json:"report"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ComparisonReportRow) TableName() string { return "comparison_report" }
