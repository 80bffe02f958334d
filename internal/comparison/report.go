package comparison

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

// Engine runs the whole comparison pipeline: score, diff, resolve, assemble.
// Pure computation over immutable inputs; instances are safe for concurrent
// use.
type Engine struct {
	opts  Options
	rules *rulepack.RulePack
}

func NewEngine(opts Options, rules *rulepack.RulePack) *Engine {
	if rules == nil {
		rules = rulepack.Default()
	}
	return &Engine{opts: opts, rules: rules}
}

// Request carries one comparison's inputs plus per-request policy overrides.
type Request struct {
	Left         *types.ExtractionResult
	Right        *types.ExtractionResult
	DocumentType string
	// QueryPaths scopes an additional query_answer pass to specific kv keys.
	QueryPaths []string
	// SimilarityThreshold overrides Options.MatchThreshold when set.
	SimilarityThreshold *float64
	Normalization       *NormalizationRules
	ReportID            string
}

func (e *Engine) Compare(req Request) (*types.ComparisonReport, error) {
	if req.Left == nil || req.Right == nil {
		return nil, apperr.InvalidArgument("both left and right extraction results are required")
	}
	if err := req.Left.Validate(); err != nil {
		return nil, apperr.InvalidArgument("left result invalid: %v", err)
	}
	if err := req.Right.Validate(); err != nil {
		return nil, apperr.InvalidArgument("right result invalid: %v", err)
	}

	opts := e.opts
	if req.SimilarityThreshold != nil {
		opts.MatchThreshold = *req.SimilarityThreshold
	}
	if req.Normalization != nil {
		opts.Normalization = *req.Normalization
	}

	documentType := req.DocumentType
	if documentType == "" {
		documentType = "generic"
	}

	scores := NewScorer(opts, e.rules).Score(req.Left, req.Right, documentType)
	set := NewDiffGenerator(opts, e.rules).Generate(req.Left, req.Right, documentType, req.QueryPaths)

	all := make([]types.DiffItem, 0, len(set.Metadata)+len(set.Structure)+len(set.Content)+len(set.QueryAnswer))
	all = append(all, set.Metadata...)
	all = append(all, set.Structure...)
	all = append(all, set.Content...)
	all = append(all, set.QueryAnswer...)

	resolution, unresolved := NewResolver(opts, e.rules).Resolve(all, documentType)

	reportID := req.ReportID
	if reportID == "" {
		reportID = uuid.NewString()
	}

	report := &types.ComparisonReport{
		ID:                 reportID,
		Status:             deriveStatus(opts, req.Left, req.Right, scores, all, unresolved),
		SimilarityScores:   scores,
		MetadataDiffs:      set.Metadata,
		StructureDiffs:     set.Structure,
		ContentDiffs:       set.Content,
		QueryAnswerDiffs:   set.QueryAnswer,
		SeveritySummary:    severitySummary(all),
		NarrativeSummary:   narrative(set, all),
		ConflictResolution: resolution,
		LeftRunID:          req.Left.Provenance.RunID,
		RightRunID:         req.Right.Provenance.RunID,
		CreatedAt:          time.Now().UTC(),
	}
	return report, nil
}

// deriveStatus evaluates the status rules in precedence order: incompatible,
// conflict, partial_match, match.
func deriveStatus(opts Options, left, right *types.ExtractionResult, scores types.SimilarityScores, all []types.DiffItem, unresolved int) string {
	if structurallyDisjoint(left, right) || scores.DocumentLevel < opts.IncompatibleThreshold {
		return types.StatusIncompatible
	}
	if unresolved > 0 {
		return types.StatusConflict
	}
	if scores.DocumentLevel < opts.MatchThreshold {
		return types.StatusPartialMatch
	}
	for i := range all {
		if types.SeverityRank(all[i].Severity) >= types.SeverityRank(types.SeverityHigh) {
			return types.StatusPartialMatch
		}
	}
	return types.StatusMatch
}

// structurallyDisjoint reports whether both sides have parts but share no
// part type at all (page-oriented vs tabular, for example).
func structurallyDisjoint(left, right *types.ExtractionResult) bool {
	if len(left.Parts) == 0 || len(right.Parts) == 0 {
		return false
	}
	lt := map[string]bool{}
	for i := range left.Parts {
		lt[left.Parts[i].PartType] = true
	}
	for i := range right.Parts {
		if lt[right.Parts[i].PartType] {
			return false
		}
	}
	return true
}

func severitySummary(all []types.DiffItem) map[string]int {
	out := map[string]int{
		types.SeverityLow:      0,
		types.SeverityMedium:   0,
		types.SeverityHigh:     0,
		types.SeverityCritical: 0,
	}
	for i := range all {
		if _, ok := out[all[i].Severity]; ok {
			out[all[i].Severity]++
		}
	}
	return out
}

// narrative is a fixed template over counts, not free-form text, so reports
// stay deterministic and testable.
func narrative(set DiffSet, all []types.DiffItem) string {
	if len(all) == 0 {
		return "No differences detected."
	}
	dominant := types.SeverityLow
	for i := range all {
		if types.SeverityRank(all[i].Severity) > types.SeverityRank(dominant) {
			dominant = all[i].Severity
		}
	}
	return fmt.Sprintf("%d differences (%d metadata, %d structure, %d content, %d query); dominant severity: %s.",
		len(all), len(set.Metadata), len(set.Structure), len(set.Content), len(set.QueryAnswer), dominant)
}
