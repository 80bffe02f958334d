package comparison

import (
	"fmt"
	"sort"

	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

// Resolver applies the rule pack policy to conflict diffs on critical
// fields. It never invents a resolution: absent or unknown policies leave
// the conflict unresolved and visible in the report.
type Resolver struct {
	opts  Options
	rules *rulepack.RulePack
}

func NewResolver(opts Options, rules *rulepack.RulePack) *Resolver {
	if rules == nil {
		rules = rulepack.Default()
	}
	return &Resolver{opts: opts, rules: rules}
}

// Resolve walks conflict diffs on critical fields and records a chosen side
// per policy. Diffs whose path has no applicable rule stay untouched.
// Returns the resolution record and the count of conflicts left unresolved
// (including conflict diffs on non-critical paths).
func (r *Resolver) Resolve(diffs []types.DiffItem, documentType string) (*types.ConflictResolution, int) {
	policy := r.rules.PolicyFor(documentType)
	res := &types.ConflictResolution{Policy: policy, ChosenValues: []types.ChosenValue{}}

	unresolved := 0
	for i := range diffs {
		d := &diffs[i]
		if d.DiffType != types.DiffTypeConflict {
			continue
		}
		if !r.rules.IsCritical(documentType, d.Path) || policy == "" {
			unresolved++
			continue
		}
		cv := r.apply(policy, d)
		if cv.ChosenSide == "none" {
			unresolved++
		}
		res.ChosenValues = append(res.ChosenValues, cv)
	}
	sort.Slice(res.ChosenValues, func(i, j int) bool {
		return res.ChosenValues[i].Path < res.ChosenValues[j].Path
	})
	return res, unresolved
}

func (r *Resolver) apply(policy string, d *types.DiffItem) types.ChosenValue {
	cv := types.ChosenValue{Path: d.Path, ChosenSide: "none"}
	switch policy {
	case rulepack.PolicyPreferHigherConfidence:
		switch {
		case d.LeftConfidence != nil && d.RightConfidence != nil && *d.LeftConfidence > *d.RightConfidence:
			cv.ChosenSide = "left"
			cv.ChosenValue = d.LeftValue
			cv.Rationale = fmt.Sprintf("left confidence %.2f > right %.2f", *d.LeftConfidence, *d.RightConfidence)
		case d.LeftConfidence != nil && d.RightConfidence != nil && *d.RightConfidence > *d.LeftConfidence:
			cv.ChosenSide = "right"
			cv.ChosenValue = d.RightValue
			cv.Rationale = fmt.Sprintf("right confidence %.2f > left %.2f", *d.RightConfidence, *d.LeftConfidence)
		default:
			// tie or missing confidence: no automatic choice
			cv.Rationale = "confidence tie; flagged for review"
		}
	case rulepack.PolicyPreferLeft:
		cv.ChosenSide = "left"
		cv.ChosenValue = d.LeftValue
		cv.Rationale = "positional precedence: left"
	case rulepack.PolicyPreferRight:
		cv.ChosenSide = "right"
		cv.ChosenValue = d.RightValue
		cv.Rationale = "positional precedence: right"
	case rulepack.PolicyFlagForReview:
		cv.Rationale = "policy flags all conflicts for review"
	default:
		cv.Rationale = fmt.Sprintf("no handler for policy %q", policy)
	}
	return cv
}
