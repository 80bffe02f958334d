package rulepack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docparity/docparity-backend/internal/types"
)

// Resolution policies the conflict resolver understands.
const (
	PolicyPreferHigherConfidence = "prefer-higher-confidence"
	PolicyPreferLeft             = "prefer-left"
	PolicyPreferRight            = "prefer-right"
	PolicyFlagForReview          = "flag-for-review"
)

type CriticalField struct {
	Path               string `yaml:"path"`
	SeverityOnConflict string `yaml:"severity_on_conflict"`
}

type DocumentTypeRules struct {
	Extends        string          `yaml:"extends"`
	ConflictPolicy string          `yaml:"conflict_policy"`
	CriticalFields []CriticalField `yaml:"critical_fields"`
}

type Defaults struct {
	UnspecifiedFieldSeverity string `yaml:"unspecified_field_severity"`
	ConflictPolicy           string `yaml:"conflict_policy"`
}

// RulePack maps document types to critical field lists and a resolution
// policy. Loaded once at startup and read-only afterwards.
type RulePack struct {
	Defaults      Defaults                     `yaml:"defaults"`
	DocumentTypes map[string]DocumentTypeRules `yaml:"document_types"`
}

// Load reads a YAML rule pack from disk. A missing path yields the built-in
// default pack rather than an error; a malformed file is an error.
func Load(path string) (*RulePack, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read rule pack: %w", err)
	}
	var rp RulePack
	if err := yaml.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("parse rule pack: %w", err)
	}
	rp.fillDefaults()
	return &rp, nil
}

// Default returns the built-in pack: provenance-bearing fields are critical
// for every document type, with confidence-preferring resolution.
func Default() *RulePack {
	rp := &RulePack{
		Defaults: Defaults{
			UnspecifiedFieldSeverity: types.SeverityLow,
			ConflictPolicy:           PolicyPreferHigherConfidence,
		},
		DocumentTypes: map[string]DocumentTypeRules{
			"generic": {
				ConflictPolicy: PolicyPreferHigherConfidence,
				CriticalFields: []CriticalField{
					{Path: "technical_metadata.hash_sha256", SeverityOnConflict: types.SeverityCritical},
					{Path: "embedded_metadata.author", SeverityOnConflict: types.SeverityHigh},
					{Path: "embedded_metadata.creator", SeverityOnConflict: types.SeverityHigh},
					{Path: "embedded_metadata.producer", SeverityOnConflict: types.SeverityHigh},
					{Path: "embedded_metadata.modified_date", SeverityOnConflict: types.SeverityHigh},
				},
			},
			"email": {
				Extends:        "generic",
				ConflictPolicy: PolicyFlagForReview,
				CriticalFields: []CriticalField{
					{Path: "embedded_metadata.from", SeverityOnConflict: types.SeverityCritical},
					{Path: "embedded_metadata.message_id", SeverityOnConflict: types.SeverityCritical},
				},
			},
		},
	}
	return rp
}

func (rp *RulePack) fillDefaults() {
	if rp.Defaults.UnspecifiedFieldSeverity == "" {
		rp.Defaults.UnspecifiedFieldSeverity = types.SeverityLow
	}
	if rp.Defaults.ConflictPolicy == "" {
		rp.Defaults.ConflictPolicy = PolicyFlagForReview
	}
}

// CriticalFieldsFor resolves the critical field list for a document type,
// following at most one level of extends per hop and guarding against cycles.
func (rp *RulePack) CriticalFieldsFor(documentType string) []CriticalField {
	var out []CriticalField
	seen := map[string]bool{}
	for documentType != "" && !seen[documentType] {
		seen[documentType] = true
		cfg, ok := rp.DocumentTypes[documentType]
		if !ok {
			break
		}
		out = append(cfg.CriticalFields, out...)
		documentType = cfg.Extends
	}
	return out
}

// IsCritical reports whether path is a critical field for the document type.
func (rp *RulePack) IsCritical(documentType, path string) bool {
	for _, f := range rp.CriticalFieldsFor(documentType) {
		if f.Path == path {
			return true
		}
	}
	return false
}

// SeverityFor returns the configured conflict severity for a field path,
// falling back to the pack default for unspecified fields.
func (rp *RulePack) SeverityFor(documentType, path string) string {
	for _, f := range rp.CriticalFieldsFor(documentType) {
		if f.Path == path && f.SeverityOnConflict != "" {
			return f.SeverityOnConflict
		}
	}
	return rp.Defaults.UnspecifiedFieldSeverity
}

// PolicyFor returns the resolution policy for a document type. An empty
// string means no applicable policy: the resolver must leave conflicts
// unresolved rather than guess.
func (rp *RulePack) PolicyFor(documentType string) string {
	seen := map[string]bool{}
	for documentType != "" && !seen[documentType] {
		seen[documentType] = true
		cfg, ok := rp.DocumentTypes[documentType]
		if !ok {
			break
		}
		if cfg.ConflictPolicy != "" {
			return cfg.ConflictPolicy
		}
		documentType = cfg.Extends
	}
	return rp.Defaults.ConflictPolicy
}
