package comparison

import (
	"time"

	"github.com/docparity/docparity-backend/internal/types"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

// invoiceResult builds a one-page result with text, kv, and table blocks.
// Mutate the returned value per test; every call returns a fresh copy.
func invoiceResult(runID string) *types.ExtractionResult {
	return &types.ExtractionResult{
		Provenance: types.Provenance{
			RunID:               runID,
			ExtractorName:       "builtin",
			ExtractorVersion:    "1.0.0",
			ExtractionTimestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Document: types.DocumentRoot{
			ID:         "doc-" + runID,
			Confidence: fp(0.9),
			TechnicalMetadata: types.TechnicalMetadata{
				FileName:      "invoice.pdf",
				MimeType:      "application/pdf",
				Extension:     "pdf",
				FileSizeBytes: 4096,
				HashSHA256:    "a1b2c3",
			},
			EmbeddedMetadata: &types.EmbeddedMetadata{
				Title:  "March Invoice",
				Author: "J. Smith",
			},
			ContentMetadata: &types.ContentMetadata{
				PageCount:  ip(1),
				TextLength: 52,
				WordCount:  11,
				TableCount: 1,
			},
		},
		Parts: []types.Part{
			{ID: "p0", PartType: types.PartTypePage, Index: 0, BlockIDs: []string{"b0", "b1", "b2"}},
		},
		Blocks: []types.Block{
			{ID: "b0", BlockType: types.BlockTypeText, PartID: "p0", Confidence: fp(0.95),
				Content: "Invoice for consulting services rendered in March"},
			{ID: "b1", BlockType: types.BlockTypeKV, PartID: "p0", Confidence: fp(0.9),
				Key: "total", Value: "$1,000.00"},
			{ID: "b2", BlockType: types.BlockTypeTable, PartID: "p0", Confidence: fp(0.9),
				Rows: ip(2), Cols: ip(2),
				Cells: [][]any{{"item", "amount"}, {"consulting", "1000.00"}}},
		},
		Relationships: []types.Relationship{
			{SourceID: "p0", TargetID: "b0", RelationType: types.RelationContains},
		},
	}
}
