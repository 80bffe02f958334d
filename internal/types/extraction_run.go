package types

import (
	"time"

	"gorm.io/datatypes"
)

// ExtractionRun is the persisted row for one extraction's output. The full
// canonical ExtractionResult rides in Result; the scalar columns exist for
// history listing and pair lookups without unmarshalling the payload.
type ExtractionRun struct {
	RunID            string         `gorm:"column:run_id;primaryKey" json:"run_id"`
	FileName         string         `gorm:"column:file_name;not null" json:"file_name"`
	MimeType         string         `gorm:"column:mime_type" json:"mime_type"`
	FileSizeBytes    int64          `gorm:"column:file_size_bytes" json:"file_size_bytes"`
	HashSHA256       string         `gorm:"column:hash_sha256;index" json:"hash_sha256"`
	SourceSystem     string         `gorm:"column:source_system" json:"source_system,omitempty"`
	SourceURI        string         `gorm:"column:source_uri" json:"source_uri,omitempty"`
	ExtractorName    string         `gorm:"column:extractor_name;not null" json:"extractor_name"`
	ExtractorVersion string         `gorm:"column:extractor_version;not null" json:"extractor_version"`
	Result           datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (ExtractionRun) TableName() string { return "extraction_run" }
