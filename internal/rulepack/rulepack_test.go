package rulepack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docparity/docparity-backend/internal/types"
)

func TestLoadMissingPathFallsBackToDefault(t *testing.T) {
	rp, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !rp.IsCritical("generic", "technical_metadata.hash_sha256") {
		t.Error("default pack must mark the content hash critical")
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("defaults: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml must error, not fall back")
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := `
document_types:
  invoice:
    critical_fields:
      - path: kv.total
        severity_on_conflict: critical
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	rp, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if rp.Defaults.ConflictPolicy != PolicyFlagForReview {
		t.Errorf("unset default policy = %q, want flag-for-review", rp.Defaults.ConflictPolicy)
	}
	if rp.Defaults.UnspecifiedFieldSeverity != types.SeverityLow {
		t.Errorf("unset default severity = %q, want low", rp.Defaults.UnspecifiedFieldSeverity)
	}
	if got := rp.SeverityFor("invoice", "kv.total"); got != types.SeverityCritical {
		t.Errorf("SeverityFor = %q, want critical", got)
	}
}

func TestExtendsMergesCriticalFields(t *testing.T) {
	rp := Default()
	// email inherits generic's fields and adds its own
	if !rp.IsCritical("email", "embedded_metadata.author") {
		t.Error("email must inherit generic critical fields")
	}
	if !rp.IsCritical("email", "embedded_metadata.message_id") {
		t.Error("email must keep its own critical fields")
	}
	if rp.IsCritical("generic", "embedded_metadata.message_id") {
		t.Error("inheritance must not flow upward")
	}
}

func TestExtendsCycleTerminates(t *testing.T) {
	rp := &RulePack{DocumentTypes: map[string]DocumentTypeRules{
		"a": {Extends: "b", CriticalFields: []CriticalField{{Path: "x"}}},
		"b": {Extends: "a", CriticalFields: []CriticalField{{Path: "y"}}},
	}}
	fields := rp.CriticalFieldsFor("a")
	if len(fields) != 2 {
		t.Errorf("cyclic extends: got %d fields, want 2", len(fields))
	}
}

func TestPolicyForFollowsExtendsThenDefaults(t *testing.T) {
	rp := Default()
	if got := rp.PolicyFor("email"); got != PolicyFlagForReview {
		t.Errorf("email policy = %q, want its own flag-for-review", got)
	}
	if got := rp.PolicyFor("unknown-type"); got != rp.Defaults.ConflictPolicy {
		t.Errorf("unknown type policy = %q, want pack default", got)
	}

	rp.DocumentTypes["email"] = DocumentTypeRules{Extends: "generic"}
	if got := rp.PolicyFor("email"); got != PolicyPreferHigherConfidence {
		t.Errorf("policy must follow extends when unset locally, got %q", got)
	}
}

func TestSeverityForUnspecifiedField(t *testing.T) {
	rp := Default()
	if got := rp.SeverityFor("generic", "embedded_metadata.subject"); got != types.SeverityLow {
		t.Errorf("unspecified field severity = %q, want pack default low", got)
	}
}
