package comparison

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

// DiffGenerator produces categorized, typed diff items between two results.
// Output ordering is deterministic: category order, then path, then type.
type DiffGenerator struct {
	opts  Options
	rules *rulepack.RulePack
}

func NewDiffGenerator(opts Options, rules *rulepack.RulePack) *DiffGenerator {
	if rules == nil {
		rules = rulepack.Default()
	}
	return &DiffGenerator{opts: opts, rules: rules}
}

type DiffSet struct {
	Metadata    []types.DiffItem
	Structure   []types.DiffItem
	Content     []types.DiffItem
	QueryAnswer []types.DiffItem
}

func (g *DiffGenerator) Generate(left, right *types.ExtractionResult, documentType string, queryPaths []string) DiffSet {
	set := DiffSet{
		Metadata:    g.metadataDiffs(left, right, documentType),
		Structure:   g.structureDiffs(left, right),
		Content:     g.contentDiffs(left, right, documentType),
		QueryAnswer: g.queryAnswerDiffs(left, right, documentType, queryPaths),
	}
	sortDiffs(set.Metadata)
	sortDiffs(set.Structure)
	sortDiffs(set.Content)
	sortDiffs(set.QueryAnswer)
	return set
}

func sortDiffs(items []types.DiffItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Path != items[j].Path {
			return items[i].Path < items[j].Path
		}
		return items[i].DiffType < items[j].DiffType
	})
}

// --- metadata ---

func (g *DiffGenerator) metadataDiffs(left, right *types.ExtractionResult, documentType string) []types.DiffItem {
	lf := flattenDocument(&left.Document)
	rf := flattenDocument(&right.Document)
	lConf := left.Document.Confidence
	rConf := right.Document.Confidence

	var diffs []types.DiffItem
	for _, key := range sortedUnion(lf, rf) {
		lv, lok := lf[key]
		rv, rok := rf[key]
		critical := g.rules.IsCritical(documentType, key)
		switch {
		case !lok:
			sev := types.SeverityLow
			if critical {
				sev = types.SeverityMedium
			}
			diffs = append(diffs, types.DiffItem{
				Category: types.DiffCategoryMetadata, DiffType: types.DiffTypeAdded,
				Path: key, RightValue: rv, Severity: sev,
				RightConfidence: rConf,
			})
		case !rok:
			sev := types.SeverityLow
			if critical {
				sev = types.SeverityMedium
			}
			diffs = append(diffs, types.DiffItem{
				Category: types.DiffCategoryMetadata, DiffType: types.DiffTypeRemoved,
				Path: key, LeftValue: lv, Severity: sev,
				LeftConfidence: lConf,
			})
		default:
			equal, sim, isText := fieldEqual(key, lv, rv, g.opts)
			if equal {
				continue
			}
			item := types.DiffItem{
				Category: types.DiffCategoryMetadata, DiffType: types.DiffTypeChanged,
				Path: key, LeftValue: lv, RightValue: rv,
				LeftConfidence: lConf, RightConfidence: rConf,
			}
			if isText && sim >= g.opts.NearMatchThreshold {
				// formatting drift, not a semantic change
				item.Severity = types.SeverityLow
				item.Description = fmt.Sprintf("string similarity %.2f", sim)
				diffs = append(diffs, item)
				continue
			}
			g.classifyChange(&item, documentType, critical, lConf, rConf)
			diffs = append(diffs, item)
		}
	}
	return diffs
}

// classifyChange applies the confidence/criticality severity policy shared
// by the metadata and content passes. High confidence on both sides
// escalates; low confidence on either side demotes and never yields a
// conflict (low confidence suggests extraction noise, not a true conflict).
func (g *DiffGenerator) classifyChange(item *types.DiffItem, documentType string, critical bool, lConf, rConf *float64) {
	base := types.SeverityMedium
	if critical {
		base = g.rules.SeverityFor(documentType, item.Path)
		if types.SeverityRank(base) < types.SeverityRank(types.SeverityHigh) {
			base = types.SeverityHigh
		}
	}
	switch {
	case confLow(lConf, g.opts) || confLow(rConf, g.opts):
		if types.SeverityRank(base) > types.SeverityRank(types.SeverityMedium) {
			base = types.SeverityMedium
		} else {
			base = types.SeverityLow
		}
		item.Severity = base
	case confHigh(lConf, g.opts) && confHigh(rConf, g.opts):
		if critical {
			item.DiffType = types.DiffTypeConflict
			item.Severity = g.rules.SeverityFor(documentType, item.Path)
			if types.SeverityRank(item.Severity) < types.SeverityRank(types.SeverityHigh) {
				item.Severity = types.SeverityHigh
			}
		} else {
			item.Severity = escalate(base)
		}
	default:
		item.Severity = base
	}
}

func confHigh(c *float64, opts Options) bool {
	return c != nil && *c >= opts.HighConfidence
}

func confLow(c *float64, opts Options) bool {
	return c != nil && *c < opts.LowConfidence
}

func escalate(sev string) string {
	switch sev {
	case types.SeverityLow:
		return types.SeverityMedium
	case types.SeverityMedium:
		return types.SeverityHigh
	case types.SeverityHigh:
		return types.SeverityCritical
	default:
		return sev
	}
}

// --- structure ---

func (g *DiffGenerator) structureDiffs(left, right *types.ExtractionResult) []types.DiffItem {
	lIdx := blockIndex(left)
	rIdx := blockIndex(right)

	var diffs []types.DiffItem
	for _, ap := range alignParts(left, right) {
		path := fmt.Sprintf("parts[%d]", ap.Key.Index)
		switch {
		case ap.Right == nil:
			diffs = append(diffs, types.DiffItem{
				Category: types.DiffCategoryStructure, DiffType: types.DiffTypeRemoved,
				Path: path, LeftValue: ap.Key.PartType, Severity: types.SeverityHigh,
				Description: fmt.Sprintf("%s %d only on left", ap.Key.PartType, ap.Key.Index),
			})
			continue
		case ap.Left == nil:
			diffs = append(diffs, types.DiffItem{
				Category: types.DiffCategoryStructure, DiffType: types.DiffTypeAdded,
				Path: path, RightValue: ap.Key.PartType, Severity: types.SeverityHigh,
				Description: fmt.Sprintf("%s %d only on right", ap.Key.PartType, ap.Key.Index),
			})
			continue
		}
		lBlocks := partBlocks(ap.Left, lIdx)
		rBlocks := partBlocks(ap.Right, rIdx)
		for _, k := range sortedBlockKeys(lBlocks, rBlocks) {
			lb, lok := lBlocks[k]
			rb, rok := rBlocks[k]
			switch {
			case !rok:
				diffs = append(diffs, types.DiffItem{
					Category: types.DiffCategoryStructure, DiffType: types.DiffTypeRemoved,
					Path:     fmt.Sprintf("%s.blocks[%d]", path, lb.Seq),
					Severity: types.SeverityMedium, LeftValue: k.BlockType,
					LeftBlockID: lb.B.ID,
				})
			case !lok:
				diffs = append(diffs, types.DiffItem{
					Category: types.DiffCategoryStructure, DiffType: types.DiffTypeAdded,
					Path:     fmt.Sprintf("%s.blocks[%d]", path, rb.Seq),
					Severity: types.SeverityMedium, RightValue: k.BlockType,
					RightBlockID: rb.B.ID,
				})
			case k.BlockType == types.BlockTypeTable:
				lr, lc := tableDims(lb.B)
				rr, rc := tableDims(rb.B)
				if lr != rr || lc != rc {
					diffs = append(diffs, types.DiffItem{
						Category: types.DiffCategoryStructure, DiffType: types.DiffTypeChanged,
						Path:        fmt.Sprintf("%s.blocks[%d]", path, lb.Seq),
						LeftValue:   fmt.Sprintf("%dx%d", lr, lc),
						RightValue:  fmt.Sprintf("%dx%d", rr, rc),
						Severity:    types.SeverityMedium,
						LeftBlockID: lb.B.ID, RightBlockID: rb.B.ID,
						Description: "table dimensions differ; comparison clipped to overlap",
					})
				}
			}
		}
	}
	return diffs
}

// --- content ---

func (g *DiffGenerator) contentDiffs(left, right *types.ExtractionResult, documentType string) []types.DiffItem {
	lIdx := blockIndex(left)
	rIdx := blockIndex(right)

	var diffs []types.DiffItem
	for _, ap := range alignParts(left, right) {
		if ap.Left == nil || ap.Right == nil {
			continue // one-sided parts already reported as structure diffs
		}
		path := fmt.Sprintf("parts[%d]", ap.Key.Index)
		lBlocks := partBlocks(ap.Left, lIdx)
		rBlocks := partBlocks(ap.Right, rIdx)
		for _, k := range sortedBlockKeys(lBlocks, rBlocks) {
			lb, lok := lBlocks[k]
			rb, rok := rBlocks[k]
			if !lok || !rok {
				continue
			}
			blockPath := fmt.Sprintf("%s.blocks[%d]", path, lb.Seq)
			switch k.BlockType {
			case types.BlockTypeText:
				diffs = g.appendTextDiff(diffs, blockPath, lb.B, rb.B)
			case types.BlockTypeTable:
				diffs = g.appendTableDiff(diffs, blockPath, lb.B, rb.B)
			}
		}
	}

	diffs = append(diffs, g.kvDiffs(left, right, documentType, nil, types.DiffCategoryContent)...)
	return diffs
}

func (g *DiffGenerator) appendTextDiff(diffs []types.DiffItem, path string, lb, rb *types.Block) []types.DiffItem {
	ln := NormalizeString(lb.Content, g.opts.Normalization)
	rn := NormalizeString(rb.Content, g.opts.Normalization)
	if ln == rn {
		return diffs
	}
	sim := TokenSimilarity(lb.Content, rb.Content)
	item := types.DiffItem{
		Category: types.DiffCategoryContent, DiffType: types.DiffTypeChanged,
		Path: path, LeftValue: lb.Content, RightValue: rb.Content,
		LeftBlockID: lb.ID, RightBlockID: rb.ID,
		LeftConfidence: lb.Confidence, RightConfidence: rb.Confidence,
		Description: fmt.Sprintf("text similarity %.2f", sim),
	}
	switch {
	case sim >= g.opts.NearMatchThreshold:
		item.Severity = types.SeverityLow
	case confLow(lb.Confidence, g.opts) || confLow(rb.Confidence, g.opts):
		item.Severity = types.SeverityMedium
	case confHigh(lb.Confidence, g.opts) && confHigh(rb.Confidence, g.opts):
		item.DiffType = types.DiffTypeConflict
		item.Severity = types.SeverityHigh
	default:
		item.Severity = types.SeverityMedium
	}
	return append(diffs, item)
}

func (g *DiffGenerator) appendTableDiff(diffs []types.DiffItem, path string, lb, rb *types.Block) []types.DiffItem {
	lr, lc := tableDims(lb)
	rr, rc := tableDims(rb)
	rows := min2(lr, rr)
	cols := min2(lc, rc)
	mismatched := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !cellEqual(cellAt(lb, r, c), cellAt(rb, r, c), g.opts.Normalization) {
				mismatched++
			}
		}
	}
	if mismatched == 0 {
		return diffs
	}
	total := rows * cols
	ratio := 1.0 - float64(mismatched)/float64(total)
	item := types.DiffItem{
		Category: types.DiffCategoryContent, DiffType: types.DiffTypeChanged,
		Path:        path,
		LeftBlockID: lb.ID, RightBlockID: rb.ID,
		LeftConfidence: lb.Confidence, RightConfidence: rb.Confidence,
		Description: fmt.Sprintf("%d of %d aligned cells differ", mismatched, total),
	}
	switch {
	case ratio >= g.opts.NearMatchThreshold:
		item.Severity = types.SeverityLow
	case confLow(lb.Confidence, g.opts) || confLow(rb.Confidence, g.opts):
		item.Severity = types.SeverityMedium
	case confHigh(lb.Confidence, g.opts) && confHigh(rb.Confidence, g.opts):
		item.DiffType = types.DiffTypeConflict
		item.Severity = types.SeverityHigh
	default:
		item.Severity = types.SeverityMedium
	}
	return append(diffs, item)
}

// kvDiffs compares key-value blocks. With keyFilter set the pass is scoped
// to specific keys and reports under the given category (query_answer).
func (g *DiffGenerator) kvDiffs(left, right *types.ExtractionResult, documentType string, keyFilter []string, category string) []types.DiffItem {
	lKV := kvIndex(left)
	rKV := kvIndex(right)

	var keys []string
	if keyFilter != nil {
		for _, k := range keyFilter {
			keys = append(keys, strings.ToLower(k))
		}
		sort.Strings(keys)
	} else {
		seen := map[string]bool{}
		for k := range lKV {
			seen[k] = true
		}
		for k := range rKV {
			seen[k] = true
		}
		for k := range seen {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	var diffs []types.DiffItem
	for _, key := range keys {
		lb, lok := lKV[key]
		rb, rok := rKV[key]
		path := "kv." + key
		switch {
		case !lok && !rok:
			continue
		case !lok:
			diffs = append(diffs, types.DiffItem{
				Category: category, DiffType: types.DiffTypeAdded,
				Path: path, RightValue: kvValue(rb), Severity: types.SeverityMedium,
				RightBlockID: rb.ID, RightConfidence: rb.Confidence,
			})
		case !rok:
			diffs = append(diffs, types.DiffItem{
				Category: category, DiffType: types.DiffTypeRemoved,
				Path: path, LeftValue: kvValue(lb), Severity: types.SeverityMedium,
				LeftBlockID: lb.ID, LeftConfidence: lb.Confidence,
			})
		default:
			if cellEqual(kvValue(lb), kvValue(rb), g.opts.Normalization) {
				continue
			}
			item := types.DiffItem{
				Category: category, DiffType: types.DiffTypeChanged,
				Path: path, LeftValue: kvValue(lb), RightValue: kvValue(rb),
				LeftBlockID: lb.ID, RightBlockID: rb.ID,
				LeftConfidence: lb.Confidence, RightConfidence: rb.Confidence,
			}
			critical := g.rules.IsCritical(documentType, path)
			sim := StringSimilarity(fmt.Sprint(kvValue(lb)), fmt.Sprint(kvValue(rb)), g.opts.Normalization)
			switch {
			case sim >= g.opts.NearMatchThreshold:
				item.Severity = types.SeverityLow
			case confLow(lb.Confidence, g.opts) || confLow(rb.Confidence, g.opts):
				item.Severity = types.SeverityMedium
			case confHigh(lb.Confidence, g.opts) && confHigh(rb.Confidence, g.opts):
				item.DiffType = types.DiffTypeConflict
				item.Severity = types.SeverityHigh
				if critical {
					if s := g.rules.SeverityFor(documentType, path); types.SeverityRank(s) > types.SeverityRank(item.Severity) {
						item.Severity = s
					}
				}
			default:
				item.Severity = types.SeverityMedium
				if critical {
					item.Severity = types.SeverityHigh
				}
			}
			diffs = append(diffs, item)
		}
	}
	return diffs
}

func (g *DiffGenerator) queryAnswerDiffs(left, right *types.ExtractionResult, documentType string, queryPaths []string) []types.DiffItem {
	if len(queryPaths) == 0 {
		return nil
	}
	return g.kvDiffs(left, right, documentType, queryPaths, types.DiffCategoryQueryAnswer)
}
