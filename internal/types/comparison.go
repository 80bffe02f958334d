package types

import "time"

// Comparison model. A ComparisonReport is created once per comparison and is
// immutable afterwards.

const (
	StatusMatch        = "match"
	StatusPartialMatch = "partial_match"
	StatusConflict     = "conflict"
	StatusIncompatible = "incompatible"
)

const (
	DiffCategoryMetadata    = "metadata"
	DiffCategoryStructure   = "structure"
	DiffCategoryContent     = "content"
	DiffCategoryQueryAnswer = "query_answer"
)

const (
	DiffTypeAdded    = "added"
	DiffTypeRemoved  = "removed"
	DiffTypeChanged  = "changed"
	DiffTypeConflict = "conflict"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityRank orders severities for escalation comparisons.
func SeverityRank(s string) int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

type DiffItem struct {
	Category        string   `json:"category"`
	DiffType        string   `json:"diff_type"`
	Path            string   `json:"path"`
	LeftValue       any      `json:"left_value,omitempty"`
	RightValue      any      `json:"right_value,omitempty"`
	Severity        string   `json:"severity"`
	LeftBlockID     string   `json:"left_block_id,omitempty"`
	RightBlockID    string   `json:"right_block_id,omitempty"`
	LeftConfidence  *float64 `json:"left_confidence,omitempty"`
	RightConfidence *float64 `json:"right_confidence,omitempty"`
	Description     string   `json:"description,omitempty"`
}

type PartScore struct {
	PartIndex int     `json:"part_index"`
	Score     float64 `json:"score"`
}

type SimilarityScores struct {
	DocumentLevel       float64     `json:"document_level"`
	MetadataSimilarity  float64     `json:"metadata_similarity"`
	StructureSimilarity float64     `json:"structure_similarity"`
	ContentSimilarity   float64     `json:"content_similarity"`
	PerPart             []PartScore `json:"per_part"`
}

type ChosenValue struct {
	Path        string `json:"path"`
	ChosenSide  string `json:"chosen_side"` // left | right | none
	ChosenValue any    `json:"chosen_value,omitempty"`
	Rationale   string `json:"rationale"`
}

type ConflictResolution struct {
	Policy       string        `json:"policy"`
	ChosenValues []ChosenValue `json:"chosen_values"`
}

type ComparisonReport struct {
	ID                 string              `json:"id"`
	Status             string              `json:"status"`
	SimilarityScores   SimilarityScores    `json:"similarity_scores"`
	MetadataDiffs      []DiffItem          `json:"metadata_diffs"`
	StructureDiffs     []DiffItem          `json:"structure_diffs"`
	ContentDiffs       []DiffItem          `json:"content_diffs"`
	QueryAnswerDiffs   []DiffItem          `json:"query_answer_diffs"`
	SeveritySummary    map[string]int      `json:"severity_summary"`
	NarrativeSummary   string              `json:"narrative_summary"`
	ConflictResolution *ConflictResolution `json:"conflict_resolution,omitempty"`
	LeftRunID          string              `json:"left_run_id,omitempty"`
	RightRunID         string              `json:"right_run_id,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// AllDiffs returns every diff in report order: category, then path.
func (r *ComparisonReport) AllDiffs() []DiffItem {
	out := make([]DiffItem, 0, len(r.MetadataDiffs)+len(r.StructureDiffs)+len(r.ContentDiffs)+len(r.QueryAnswerDiffs))
	out = append(out, r.MetadataDiffs...)
	out = append(out, r.StructureDiffs...)
	out = append(out, r.ContentDiffs...)
	out = append(out, r.QueryAnswerDiffs...)
	return out
}
