package comparison

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/docparity/docparity-backend/internal/types"
)

// Metadata field handling shared by the scorer and the differ: documents are
// flattened to path → value maps over the three metadata records.

// Fields excluded from field-by-field comparison. Identity and ingestion
// bookkeeping differ between any two runs of the same file and would drown
// real differences; confidence values are uncertainty measures, compared
// through severity weighting instead of as values.
var skippedFields = map[string]bool{
	"id":                                     true,
	"confidence":                             true,
	"technical_metadata.created_at_ingested": true,
	"content_metadata.language_confidence":   true,
}

// Free-text fields scored with string similarity instead of equality.
var freeTextFields = map[string]bool{
	"embedded_metadata.title":            true,
	"embedded_metadata.author":           true,
	"embedded_metadata.creator":          true,
	"embedded_metadata.producer":         true,
	"embedded_metadata.subject":          true,
	"embedded_metadata.last_modified_by": true,
	"technical_metadata.file_name":       true,
}

func isFreeText(path string) bool { return freeTextFields[path] }

// flattenDocument renders the document's metadata records into a flat
// path → value map. Nested objects (exif, entity_counts, extras) flatten
// recursively; absent fields simply do not appear.
func flattenDocument(doc *types.DocumentRoot) map[string]any {
	raw, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return map[string]any{}
	}
	flat := map[string]any{}
	flattenInto(flat, "", tree)
	for path := range flat {
		if skippedFields[path] {
			delete(flat, path)
		}
	}
	return flat
}

func flattenInto(out map[string]any, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			flattenInto(out, p, child)
		}
	case []any:
		for i, child := range t {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), child)
		}
	case nil:
		// absent
	default:
		if prefix != "" {
			out[prefix] = t
		}
	}
}

func sortedUnion(a, b map[string]any) []string {
	seen := map[string]bool{}
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// numericallyEqual applies the relative tolerance for float metadata fields.
func numericallyEqual(a, b float64, tolerance float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tolerance*scale
}

// fieldEqual reports whether two metadata values are equal after
// normalization, plus the string similarity for free-text fields.
func fieldEqual(path string, lv, rv any, opts Options) (equal bool, textSim float64, isText bool) {
	if lf, lok := asFloat(lv); lok {
		if rf, rok := asFloat(rv); rok {
			return numericallyEqual(lf, rf, opts.NumericTolerance), 0, false
		}
	}
	ls := fmt.Sprint(lv)
	rs := fmt.Sprint(rv)
	if isFreeText(path) {
		sim := StringSimilarity(ls, rs, opts.Normalization)
		return sim == 1.0, sim, true
	}
	ln := NormalizeValue(lv, opts.Normalization)
	rn := NormalizeValue(rv, opts.Normalization)
	return fmt.Sprint(ln) == fmt.Sprint(rn), 0, false
}

// partKey aligns parts across runs by type and ordering index.
type partKey struct {
	PartType string
	Index    int
}

// blockKey aligns blocks within a matched part by type and position.
type blockKey struct {
	BlockType string
	Position  int
}

type alignedPart struct {
	Key   partKey
	Left  *types.Part
	Right *types.Part
}

// alignParts pairs parts by (part_type, index) and returns the aligned set
// in deterministic key order, including one-sided entries.
func alignParts(left, right *types.ExtractionResult) []alignedPart {
	lm := map[partKey]*types.Part{}
	rm := map[partKey]*types.Part{}
	for i := range left.Parts {
		p := &left.Parts[i]
		lm[partKey{p.PartType, p.Index}] = p
	}
	for i := range right.Parts {
		p := &right.Parts[i]
		rm[partKey{p.PartType, p.Index}] = p
	}
	seen := map[partKey]bool{}
	keys := []partKey{}
	for k := range lm {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range rm {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PartType != keys[j].PartType {
			return keys[i].PartType < keys[j].PartType
		}
		return keys[i].Index < keys[j].Index
	})
	out := make([]alignedPart, 0, len(keys))
	for _, k := range keys {
		out = append(out, alignedPart{Key: k, Left: lm[k], Right: rm[k]})
	}
	return out
}

// blockIndex resolves a run's blocks by id.
func blockIndex(r *types.ExtractionResult) map[string]*types.Block {
	out := make(map[string]*types.Block, len(r.Blocks))
	for i := range r.Blocks {
		out[r.Blocks[i].ID] = &r.Blocks[i]
	}
	return out
}

// blockRef pairs an aligned block with its position in the part's sequence,
// which diff paths report.
type blockRef struct {
	B   *types.Block
	Seq int
}

// partBlocks returns a part's blocks in sequence order, keyed for alignment.
// Position counts per block type so reordering unrelated types does not
// shift alignment of the rest.
func partBlocks(p *types.Part, idx map[string]*types.Block) map[blockKey]blockRef {
	out := map[blockKey]blockRef{}
	if p == nil {
		return out
	}
	perType := map[string]int{}
	for seq, id := range p.BlockIDs {
		b, ok := idx[id]
		if !ok {
			continue
		}
		pos := perType[b.BlockType]
		perType[b.BlockType]++
		out[blockKey{b.BlockType, pos}] = blockRef{B: b, Seq: seq}
	}
	return out
}

func sortedBlockKeys(a, b map[blockKey]blockRef) []blockKey {
	seen := map[blockKey]bool{}
	keys := []blockKey{}
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].BlockType != keys[j].BlockType {
			return keys[i].BlockType < keys[j].BlockType
		}
		return keys[i].Position < keys[j].Position
	})
	return keys
}

// kvIndex maps lowercased kv keys to their blocks for one run.
func kvIndex(r *types.ExtractionResult) map[string]*types.Block {
	out := map[string]*types.Block{}
	for i := range r.Blocks {
		b := &r.Blocks[i]
		if b.BlockType == types.BlockTypeKV && b.Key != "" {
			out[strings.ToLower(b.Key)] = b
		}
	}
	return out
}

func kvValue(b *types.Block) any {
	if b.Value != nil {
		return b.Value
	}
	return b.Content
}
