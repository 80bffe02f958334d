package comparison

// Options carries every policy constant the engine uses. Nothing in the
// scoring or status derivation reads numbers from anywhere else, so the
// whole policy surface is visible (and overridable) in one place.
type Options struct {
	// Document-level score = Wm*metadata + Ws*structure + Wc*content.
	MetadataWeight  float64
	StructureWeight float64
	ContentWeight   float64

	// Status thresholds: document_level < IncompatibleThreshold derives
	// incompatible; document_level >= MatchThreshold (and no escalating
	// diffs) derives match.
	MatchThreshold        float64
	IncompatibleThreshold float64

	// Confidence bands for severity escalation. A side is "high confidence"
	// at >= HighConfidence, "low" at < LowConfidence.
	HighConfidence float64
	LowConfidence  float64

	// NearMatchThreshold: a changed free-text field whose string similarity
	// is at or above this stays low severity (formatting drift, not a
	// semantic change).
	NearMatchThreshold float64

	// Relative tolerance for numeric metadata fields.
	NumericTolerance float64

	// Weight multiplier applied to rule-pack critical fields in the
	// metadata similarity mean.
	CriticalFieldWeight float64

	Normalization NormalizationRules
}

func DefaultOptions() Options {
	return Options{
		MetadataWeight:        0.3,
		StructureWeight:       0.4,
		ContentWeight:         0.3,
		MatchThreshold:        0.95,
		IncompatibleThreshold: 0.40,
		HighConfidence:        0.8,
		LowConfidence:         0.5,
		NearMatchThreshold:    0.8,
		NumericTolerance:      1e-9,
		CriticalFieldWeight:   2.0,
		Normalization:         DefaultNormalization(),
	}
}
