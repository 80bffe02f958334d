package comparison

import (
	"testing"

	"github.com/docparity/docparity-backend/internal/types"
)

func TestDiffSelfComparisonEmpty(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	r := invoiceResult("run-a")
	set := g.Generate(r, r, "generic", nil)
	if n := len(set.Metadata) + len(set.Structure) + len(set.Content) + len(set.QueryAnswer); n != 0 {
		t.Errorf("self comparison produced %d diffs, want 0", n)
	}
}

func TestMetadataDiffNearMatchStaysLow(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.EmbeddedMetadata.Author = "J Smith"

	set := g.Generate(left, right, "generic", nil)
	if len(set.Metadata) != 1 {
		t.Fatalf("metadata diffs = %d, want 1", len(set.Metadata))
	}
	d := set.Metadata[0]
	if d.Path != "embedded_metadata.author" {
		t.Errorf("path = %q", d.Path)
	}
	if d.DiffType != types.DiffTypeChanged {
		t.Errorf("diff_type = %q, want changed", d.DiffType)
	}
	if d.Severity != types.SeverityLow {
		t.Errorf("severity = %q, want low for a near-match on a confident field", d.Severity)
	}
}

func TestMetadataDiffCriticalHighConfidenceConflicts(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	// author is critical in the default pack; a dissimilar value with both
	// sides confident must classify as conflict
	right.Document.EmbeddedMetadata.Author = "Completely Other Name"

	set := g.Generate(left, right, "generic", nil)
	if len(set.Metadata) != 1 {
		t.Fatalf("metadata diffs = %d, want 1", len(set.Metadata))
	}
	d := set.Metadata[0]
	if d.DiffType != types.DiffTypeConflict {
		t.Errorf("diff_type = %q, want conflict", d.DiffType)
	}
	if types.SeverityRank(d.Severity) < types.SeverityRank(types.SeverityHigh) {
		t.Errorf("severity = %q, want at least high", d.Severity)
	}
}

func TestMetadataDiffLowConfidenceNeverConflicts(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.EmbeddedMetadata.Author = "Completely Other Name"
	right.Document.Confidence = fp(0.3)

	set := g.Generate(left, right, "generic", nil)
	if len(set.Metadata) != 1 {
		t.Fatalf("metadata diffs = %d, want 1", len(set.Metadata))
	}
	d := set.Metadata[0]
	if d.DiffType == types.DiffTypeConflict {
		t.Error("low confidence change must not classify as conflict")
	}
	if types.SeverityRank(d.Severity) > types.SeverityRank(types.SeverityMedium) {
		t.Errorf("severity = %q, want at most medium for low confidence", d.Severity)
	}
}

// A changed critical field with both-sides-high confidence must never score
// lower than the same change with low confidence on either side.
func TestSeverityMonotonicInConfidence(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)

	run := func(conf float64) types.DiffItem {
		left := invoiceResult("run-a")
		right := invoiceResult("run-b")
		left.Document.Confidence = fp(conf)
		right.Document.Confidence = fp(conf)
		right.Document.EmbeddedMetadata.Author = "Completely Other Name"
		set := g.Generate(left, right, "generic", nil)
		if len(set.Metadata) != 1 {
			t.Fatalf("metadata diffs = %d, want 1", len(set.Metadata))
		}
		return set.Metadata[0]
	}

	high := run(0.95)
	low := run(0.2)
	if types.SeverityRank(high.Severity) < types.SeverityRank(low.Severity) {
		t.Errorf("high-confidence severity %q ranked below low-confidence %q", high.Severity, low.Severity)
	}
}

func TestDiffSymmetryPolarity(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.EmbeddedMetadata.Subject = "only on right"

	ab := g.Generate(left, right, "generic", nil)
	ba := g.Generate(right, left, "generic", nil)
	if len(ab.Metadata) != 1 || len(ba.Metadata) != 1 {
		t.Fatalf("metadata diffs = %d/%d, want 1/1", len(ab.Metadata), len(ba.Metadata))
	}
	if ab.Metadata[0].DiffType != types.DiffTypeAdded {
		t.Errorf("A,B diff_type = %q, want added", ab.Metadata[0].DiffType)
	}
	if ba.Metadata[0].DiffType != types.DiffTypeRemoved {
		t.Errorf("B,A diff_type = %q, want removed", ba.Metadata[0].DiffType)
	}
	if ab.Metadata[0].RightValue != ba.Metadata[0].LeftValue {
		t.Error("swapped sides must carry the same value")
	}
}

func TestStructureDiffPartAndBlockPaths(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Parts = append(right.Parts, types.Part{
		ID: "p1", PartType: types.PartTypePage, Index: 1, BlockIDs: []string{"b9"},
	})
	right.Blocks = append(right.Blocks, types.Block{
		ID: "b9", BlockType: types.BlockTypeText, PartID: "p1", Content: "appendix",
	})
	// and drop the kv block from the shared page
	right.Parts[0].BlockIDs = []string{"b0", "b2"}
	right.Blocks = append(right.Blocks[:1], right.Blocks[2:]...)

	set := g.Generate(left, right, "generic", nil)
	var sawPart, sawBlock bool
	for _, d := range set.Structure {
		switch d.Path {
		case "parts[1]":
			sawPart = true
			if d.DiffType != types.DiffTypeAdded {
				t.Errorf("parts[1] diff_type = %q, want added", d.DiffType)
			}
		case "parts[0].blocks[1]":
			sawBlock = true
			if d.DiffType != types.DiffTypeRemoved {
				t.Errorf("blocks diff_type = %q, want removed", d.DiffType)
			}
		}
	}
	if !sawPart || !sawBlock {
		t.Errorf("expected part and block structure diffs, got %+v", set.Structure)
	}
}

func TestStructureDiffTableShapeChange(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Blocks[2].Rows = ip(3)
	right.Blocks[2].Cells = [][]any{{"item", "amount"}, {"consulting", "1000.00"}, {"tax", "80.00"}}

	set := g.Generate(left, right, "generic", nil)
	if len(set.Structure) != 1 {
		t.Fatalf("structure diffs = %d, want 1", len(set.Structure))
	}
	d := set.Structure[0]
	if d.DiffType != types.DiffTypeChanged || d.LeftValue != "2x2" || d.RightValue != "3x2" {
		t.Errorf("unexpected shape diff: %+v", d)
	}
}

func TestContentDiffKVChanged(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Blocks[1].Value = "$2,500.00"

	set := g.Generate(left, right, "generic", nil)
	if len(set.Content) != 1 {
		t.Fatalf("content diffs = %d, want 1: %+v", len(set.Content), set.Content)
	}
	d := set.Content[0]
	if d.Path != "kv.total" {
		t.Errorf("path = %q, want kv.total", d.Path)
	}
	// both extractors are confident and the amounts disagree outright
	if d.DiffType != types.DiffTypeConflict || d.Severity != types.SeverityHigh {
		t.Errorf("unexpected kv diff: %+v", d)
	}
}

func TestContentDiffCurrencyFormattingIsNotADiff(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Blocks[1].Value = "1000.00" // same amount, no currency decoration

	set := g.Generate(left, right, "generic", nil)
	if len(set.Content) != 0 {
		t.Errorf("normalized-equal kv values must not diff: %+v", set.Content)
	}
}

func TestQueryAnswerScopedDiff(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Blocks[1].Value = "$2,500.00"

	set := g.Generate(left, right, "generic", []string{"total"})
	if len(set.QueryAnswer) != 1 {
		t.Fatalf("query_answer diffs = %d, want 1", len(set.QueryAnswer))
	}
	d := set.QueryAnswer[0]
	if d.Category != types.DiffCategoryQueryAnswer || d.Path != "kv.total" {
		t.Errorf("unexpected query diff: %+v", d)
	}
}

func TestDiffOrderingDeterministic(t *testing.T) {
	g := NewDiffGenerator(DefaultOptions(), nil)
	left := invoiceResult("run-a")
	right := invoiceResult("run-b")
	right.Document.EmbeddedMetadata.Title = "Renamed Invoice Entirely Different"
	right.Document.EmbeddedMetadata.Subject = "added subject"
	right.Document.TechnicalMetadata.FileName = "renamed-beyond-recognition.pdf"

	first := g.Generate(left, right, "generic", nil)
	for i := 0; i < 5; i++ {
		again := g.Generate(left, right, "generic", nil)
		if len(again.Metadata) != len(first.Metadata) {
			t.Fatal("diff count unstable")
		}
		for j := range again.Metadata {
			if again.Metadata[j].Path != first.Metadata[j].Path {
				t.Fatalf("ordering unstable at %d: %q vs %q", j, again.Metadata[j].Path, first.Metadata[j].Path)
			}
		}
	}
	for j := 1; j < len(first.Metadata); j++ {
		if first.Metadata[j-1].Path > first.Metadata[j].Path {
			t.Fatalf("paths not sorted: %q > %q", first.Metadata[j-1].Path, first.Metadata[j].Path)
		}
	}
}
