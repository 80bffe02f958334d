package comparison

import (
	"testing"

	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

func packWithPolicy(policy string) *rulepack.RulePack {
	return &rulepack.RulePack{
		Defaults: rulepack.Defaults{
			UnspecifiedFieldSeverity: types.SeverityLow,
			ConflictPolicy:           policy,
		},
		DocumentTypes: map[string]rulepack.DocumentTypeRules{
			"generic": {
				ConflictPolicy: policy,
				CriticalFields: []rulepack.CriticalField{
					{Path: "embedded_metadata.author", SeverityOnConflict: types.SeverityHigh},
				},
			},
		},
	}
}

func authorConflict(leftConf, rightConf float64) types.DiffItem {
	return types.DiffItem{
		Category: types.DiffCategoryMetadata, DiffType: types.DiffTypeConflict,
		Path: "embedded_metadata.author", Severity: types.SeverityHigh,
		LeftValue: "A. One", RightValue: "B. Two",
		LeftConfidence: fp(leftConf), RightConfidence: fp(rightConf),
	}
}

func TestResolvePrefersHigherConfidence(t *testing.T) {
	r := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferHigherConfidence))
	res, unresolved := r.Resolve([]types.DiffItem{authorConflict(0.6, 0.9)}, "generic")
	if unresolved != 0 {
		t.Errorf("unresolved = %d, want 0", unresolved)
	}
	if len(res.ChosenValues) != 1 {
		t.Fatalf("chosen values = %d, want 1", len(res.ChosenValues))
	}
	cv := res.ChosenValues[0]
	if cv.ChosenSide != "right" || cv.ChosenValue != "B. Two" {
		t.Errorf("unexpected choice: %+v", cv)
	}
}

func TestResolveConfidenceTieStaysUnresolved(t *testing.T) {
	r := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferHigherConfidence))
	res, unresolved := r.Resolve([]types.DiffItem{authorConflict(0.9, 0.9)}, "generic")
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1 on a tie", unresolved)
	}
	if len(res.ChosenValues) != 1 || res.ChosenValues[0].ChosenSide != "none" {
		t.Errorf("tie must record chosen_side none: %+v", res.ChosenValues)
	}
}

func TestResolvePositionalPolicies(t *testing.T) {
	left := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferLeft))
	res, unresolved := left.Resolve([]types.DiffItem{authorConflict(0.5, 0.9)}, "generic")
	if unresolved != 0 || res.ChosenValues[0].ChosenSide != "left" || res.ChosenValues[0].ChosenValue != "A. One" {
		t.Errorf("prefer-left: unresolved=%d choice=%+v", unresolved, res.ChosenValues[0])
	}

	right := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferRight))
	res, unresolved = right.Resolve([]types.DiffItem{authorConflict(0.9, 0.5)}, "generic")
	if unresolved != 0 || res.ChosenValues[0].ChosenSide != "right" || res.ChosenValues[0].ChosenValue != "B. Two" {
		t.Errorf("prefer-right: unresolved=%d choice=%+v", unresolved, res.ChosenValues[0])
	}
}

func TestResolveFlagForReviewNeverResolves(t *testing.T) {
	r := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyFlagForReview))
	res, unresolved := r.Resolve([]types.DiffItem{authorConflict(0.2, 0.9)}, "generic")
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", unresolved)
	}
	if res.ChosenValues[0].ChosenSide != "none" {
		t.Errorf("flag-for-review must not pick a side: %+v", res.ChosenValues[0])
	}
}

func TestResolveNonCriticalConflictStaysUnresolved(t *testing.T) {
	r := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferHigherConfidence))
	d := authorConflict(0.5, 0.9)
	d.Path = "kv.total"
	res, unresolved := r.Resolve([]types.DiffItem{d}, "generic")
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1 for a non-critical conflict", unresolved)
	}
	if len(res.ChosenValues) != 0 {
		t.Errorf("non-critical conflicts must not get a chosen value: %+v", res.ChosenValues)
	}
}

func TestResolveIgnoresNonConflictDiffs(t *testing.T) {
	r := NewResolver(DefaultOptions(), packWithPolicy(rulepack.PolicyPreferHigherConfidence))
	d := authorConflict(0.5, 0.9)
	d.DiffType = types.DiffTypeChanged
	res, unresolved := r.Resolve([]types.DiffItem{d}, "generic")
	if unresolved != 0 || len(res.ChosenValues) != 0 {
		t.Errorf("changed diffs are not resolver input: unresolved=%d chosen=%+v", unresolved, res.ChosenValues)
	}
}

func TestResolveChosenValuesSortedByPath(t *testing.T) {
	pack := packWithPolicy(rulepack.PolicyPreferLeft)
	generic := pack.DocumentTypes["generic"]
	generic.CriticalFields = append(generic.CriticalFields,
		rulepack.CriticalField{Path: "embedded_metadata.creator", SeverityOnConflict: types.SeverityHigh})
	pack.DocumentTypes["generic"] = generic

	a := authorConflict(0.9, 0.5)
	b := authorConflict(0.9, 0.5)
	b.Path = "embedded_metadata.creator"
	r := NewResolver(DefaultOptions(), pack)
	res, _ := r.Resolve([]types.DiffItem{b, a}, "generic")
	if len(res.ChosenValues) != 2 {
		t.Fatalf("chosen values = %d, want 2", len(res.ChosenValues))
	}
	if res.ChosenValues[0].Path > res.ChosenValues[1].Path {
		t.Errorf("chosen values not sorted: %q, %q", res.ChosenValues[0].Path, res.ChosenValues[1].Path)
	}
}
