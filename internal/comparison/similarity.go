package comparison

import (
	"fmt"

	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

// Scorer computes per-aspect similarity between two extraction results.
// Pure computation over immutable inputs; safe on any goroutine.
type Scorer struct {
	opts  Options
	rules *rulepack.RulePack
}

func NewScorer(opts Options, rules *rulepack.RulePack) *Scorer {
	if rules == nil {
		rules = rulepack.Default()
	}
	return &Scorer{opts: opts, rules: rules}
}

func (s *Scorer) Score(left, right *types.ExtractionResult, documentType string) types.SimilarityScores {
	metadata := s.metadataSimilarity(left, right, documentType)
	structure, perPart := s.structureSimilarity(left, right)
	content := s.contentSimilarity(left, right)

	totalWeight := s.opts.MetadataWeight + s.opts.StructureWeight + s.opts.ContentWeight
	documentLevel := 1.0
	if totalWeight > 0 {
		documentLevel = (metadata*s.opts.MetadataWeight + structure*s.opts.StructureWeight + content*s.opts.ContentWeight) / totalWeight
	}
	return types.SimilarityScores{
		DocumentLevel:       documentLevel,
		MetadataSimilarity:  metadata,
		StructureSimilarity: structure,
		ContentSimilarity:   content,
		PerPart:             perPart,
	}
}

// metadataSimilarity is the weighted field mean over the union of present
// fields. Fields absent on both sides never enter the denominator; critical
// fields per the rule pack carry extra weight.
func (s *Scorer) metadataSimilarity(left, right *types.ExtractionResult, documentType string) float64 {
	lf := flattenDocument(&left.Document)
	rf := flattenDocument(&right.Document)
	keys := sortedUnion(lf, rf)
	if len(keys) == 0 {
		return 1.0
	}
	var sum, total float64
	for _, key := range keys {
		weight := 1.0
		if s.rules.IsCritical(documentType, key) {
			weight = s.opts.CriticalFieldWeight
		}
		lv, lok := lf[key]
		rv, rok := rf[key]
		var score float64
		switch {
		case lok && rok:
			equal, sim, isText := fieldEqual(key, lv, rv, s.opts)
			if equal {
				score = 1.0
			} else if isText {
				score = sim
			}
		default:
			// present on exactly one side
			score = 0.0
		}
		sum += score * weight
		total += weight
	}
	return sum / total
}

// structureSimilarity aligns parts by (part_type, index) and blocks by
// (block_type, position); each part scores the Jaccard ratio of matched
// block keys, averaged across parts weighted by block count.
func (s *Scorer) structureSimilarity(left, right *types.ExtractionResult) (float64, []types.PartScore) {
	aligned := alignParts(left, right)
	if len(aligned) == 0 {
		return 1.0, nil
	}
	lIdx := blockIndex(left)
	rIdx := blockIndex(right)

	var sum, total float64
	perPart := make([]types.PartScore, 0, len(aligned))
	for _, ap := range aligned {
		lBlocks := partBlocks(ap.Left, lIdx)
		rBlocks := partBlocks(ap.Right, rIdx)
		var score float64
		weight := float64(len(lBlocks) + len(rBlocks))
		if weight == 0 {
			weight = 1
		}
		if ap.Left != nil && ap.Right != nil {
			matched := 0
			for k := range lBlocks {
				if _, ok := rBlocks[k]; ok {
					matched++
				}
			}
			union := len(lBlocks) + len(rBlocks) - matched
			if union == 0 {
				score = 1.0
			} else {
				score = float64(matched) / float64(union)
			}
		}
		// unmatched parts score 0: pure structural difference
		sum += score * weight
		total += weight
		perPart = append(perPart, types.PartScore{PartIndex: ap.Key.Index, Score: score})
	}
	return sum / total, perPart
}

// contentSimilarity averages the components present on either side: token
// similarity over concatenated text, cell equality over aligned tables, and
// value equality over kv pairs.
func (s *Scorer) contentSimilarity(left, right *types.ExtractionResult) float64 {
	var scores []float64

	lText := left.ConcatenatedText()
	rText := right.ConcatenatedText()
	if lText != "" || rText != "" {
		scores = append(scores, TokenSimilarity(lText, rText))
	}

	if tableScore, ok := s.tableSimilarity(left, right); ok {
		scores = append(scores, tableScore)
	}

	if kvScore, ok := s.kvSimilarity(left, right); ok {
		scores = append(scores, kvScore)
	}

	if len(scores) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// tableSimilarity compares aligned table blocks cell by cell. Tables with
// mismatched dimensions are clipped to the overlapping rectangle; the excess
// cells stay in the denominator so they count against the score.
func (s *Scorer) tableSimilarity(left, right *types.ExtractionResult) (float64, bool) {
	lIdx := blockIndex(left)
	rIdx := blockIndex(right)
	var equal, total float64
	found := false
	for _, ap := range alignParts(left, right) {
		lBlocks := partBlocks(ap.Left, lIdx)
		rBlocks := partBlocks(ap.Right, rIdx)
		for _, k := range sortedBlockKeys(lBlocks, rBlocks) {
			if k.BlockType != types.BlockTypeTable {
				continue
			}
			lb := lBlocks[k].B
			rb := rBlocks[k].B
			if lb == nil && rb == nil {
				continue
			}
			found = true
			lr, lc := tableDims(lb)
			rr, rc := tableDims(rb)
			maxArea := lr * lc
			if rr*rc > maxArea {
				maxArea = rr * rc
			}
			if maxArea == 0 {
				continue
			}
			total += float64(maxArea)
			if lb == nil || rb == nil {
				continue
			}
			rows := min2(lr, rr)
			cols := min2(lc, rc)
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					if cellEqual(cellAt(lb, r, c), cellAt(rb, r, c), s.opts.Normalization) {
						equal++
					}
				}
			}
		}
	}
	if !found || total == 0 {
		return 0, false
	}
	return equal / total, true
}

func (s *Scorer) kvSimilarity(left, right *types.ExtractionResult) (float64, bool) {
	lKV := kvIndex(left)
	rKV := kvIndex(right)
	if len(lKV) == 0 && len(rKV) == 0 {
		return 0, false
	}
	seen := map[string]bool{}
	var equal, total float64
	for k := range lKV {
		seen[k] = true
	}
	for k := range rKV {
		seen[k] = true
	}
	for k := range seen {
		total++
		lb, lok := lKV[k]
		rb, rok := rKV[k]
		if !lok || !rok {
			continue
		}
		if cellEqual(kvValue(lb), kvValue(rb), s.opts.Normalization) {
			equal++
		}
	}
	return equal / total, true
}

func tableDims(b *types.Block) (rows, cols int) {
	if b == nil {
		return 0, 0
	}
	if b.Rows != nil && b.Cols != nil {
		return *b.Rows, *b.Cols
	}
	rows = len(b.Cells)
	for _, row := range b.Cells {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return rows, cols
}

func cellAt(b *types.Block, r, c int) any {
	if r < len(b.Cells) && c < len(b.Cells[r]) {
		return b.Cells[r][c]
	}
	return nil
}

func cellEqual(a, b any, rules NormalizationRules) bool {
	return fmt.Sprint(NormalizeValue(a, rules)) == fmt.Sprint(NormalizeValue(b, rules))
}

func min2(a, b int) int {
	if b < a {
		return b
	}
	return a
}
