package comparison

import (
	"testing"

	"github.com/docparity/docparity-backend/internal/types"
)

func TestScoreSelfComparisonIsOne(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	r := invoiceResult("run-a")
	scores := s.Score(r, r, "generic")

	if scores.DocumentLevel != 1.0 {
		t.Errorf("document_level = %v, want 1.0", scores.DocumentLevel)
	}
	if scores.MetadataSimilarity != 1.0 {
		t.Errorf("metadata_similarity = %v, want 1.0", scores.MetadataSimilarity)
	}
	if scores.StructureSimilarity != 1.0 {
		t.Errorf("structure_similarity = %v, want 1.0", scores.StructureSimilarity)
	}
	if scores.ContentSimilarity != 1.0 {
		t.Errorf("content_similarity = %v, want 1.0", scores.ContentSimilarity)
	}
	for _, ps := range scores.PerPart {
		if ps.Score != 1.0 {
			t.Errorf("per_part[%d] = %v, want 1.0", ps.PartIndex, ps.Score)
		}
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.EmbeddedMetadata.Author = "Different Person"
	right.Blocks[0].Content = "Invoice for unrelated work"

	ab := s.Score(left, right, "generic")
	ba := s.Score(right, left, "generic")
	if ab.DocumentLevel != ba.DocumentLevel {
		t.Errorf("document_level asymmetric: %v vs %v", ab.DocumentLevel, ba.DocumentLevel)
	}
	if ab.MetadataSimilarity != ba.MetadataSimilarity {
		t.Errorf("metadata asymmetric: %v vs %v", ab.MetadataSimilarity, ba.MetadataSimilarity)
	}
	if ab.StructureSimilarity != ba.StructureSimilarity {
		t.Errorf("structure asymmetric: %v vs %v", ab.StructureSimilarity, ba.StructureSimilarity)
	}
	if ab.ContentSimilarity != ba.ContentSimilarity {
		t.Errorf("content asymmetric: %v vs %v", ab.ContentSimilarity, ba.ContentSimilarity)
	}
}

func TestStructureSimilarityMissingPart(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Parts = append(right.Parts, types.Part{
		ID: "p1", PartType: types.PartTypePage, Index: 1, BlockIDs: []string{"b3"},
	})
	right.Blocks = append(right.Blocks, types.Block{
		ID: "b3", BlockType: types.BlockTypeText, PartID: "p1", Content: "appendix",
	})

	scores := s.Score(left, right, "generic")
	if scores.StructureSimilarity >= 1.0 {
		t.Errorf("structure_similarity = %v, want < 1.0 with an unmatched part", scores.StructureSimilarity)
	}
	if len(scores.PerPart) != 2 {
		t.Fatalf("per_part len = %d, want 2", len(scores.PerPart))
	}
	// the one-sided part scores zero
	var found bool
	for _, ps := range scores.PerPart {
		if ps.PartIndex == 1 {
			found = true
			if ps.Score != 0.0 {
				t.Errorf("unmatched part score = %v, want 0", ps.Score)
			}
		}
	}
	if !found {
		t.Error("unmatched part missing from per_part")
	}
}

func TestScoreMimeTypeMismatchStillScoresContent(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.TechnicalMetadata.MimeType = "text/plain"

	scores := s.Score(left, right, "generic")
	if scores.StructureSimilarity != 1.0 {
		t.Errorf("structure scoring must run despite mime mismatch, got %v", scores.StructureSimilarity)
	}
	if scores.ContentSimilarity != 1.0 {
		t.Errorf("content scoring must run despite mime mismatch, got %v", scores.ContentSimilarity)
	}
	if scores.MetadataSimilarity >= 1.0 {
		t.Errorf("metadata similarity should reflect the mime change, got %v", scores.MetadataSimilarity)
	}
}

func TestTableSimilarityClipsToOverlap(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	// right table grows one extra row: 3x2 vs 2x2, overlap identical
	right.Blocks[2].Rows = ip(3)
	right.Blocks[2].Cells = [][]any{{"item", "amount"}, {"consulting", "1000.00"}, {"tax", "80.00"}}

	score, ok := s.tableSimilarity(left, right)
	if !ok {
		t.Fatal("expected a table component")
	}
	// 4 matching cells out of max area 6: excess counts against the score
	want := 4.0 / 6.0
	if score != want {
		t.Errorf("table similarity = %v, want %v", score, want)
	}
}

func TestMetadataSimilarityIgnoresAgreedAbsence(t *testing.T) {
	s := NewScorer(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	// title absent on both sides must not affect the score
	left.Document.EmbeddedMetadata.Title = ""
	right.Document.EmbeddedMetadata.Title = ""

	scores := s.Score(left, right, "generic")
	if scores.MetadataSimilarity != 1.0 {
		t.Errorf("metadata_similarity = %v, want 1.0 when only shared-absent fields differ", scores.MetadataSimilarity)
	}
}
