package services

import (
	"context"
	"strings"
	"testing"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/extraction"
)

func TestExtractBulkIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inputs := []extraction.Input{
		{FileName: "a.txt", Data: []byte("alpha beta gamma")},
		{FileName: "bad.csv", Data: []byte("h1,h2\n\"unterminated\n")},
		{FileName: "c.csv", Data: []byte("h1,h2\n1,2\n")},
	}
	items, err := env.extract.ExtractBulk(ctx, inputs)
	if err != nil {
		t.Fatalf("ExtractBulk: %v", err)
	}
	if len(items) != len(inputs) {
		t.Fatalf("got %d items, want %d", len(items), len(inputs))
	}
	for i, item := range items {
		if item.Filename != inputs[i].FileName {
			t.Fatalf("item %d filename = %q, want %q", i, item.Filename, inputs[i].FileName)
		}
	}
	if items[0].RunID == "" || items[0].Error != "" {
		t.Fatalf("good file a.txt: run_id=%q error=%q", items[0].RunID, items[0].Error)
	}
	if items[1].RunID != "" || items[1].Error == "" {
		t.Fatalf("bad file bad.csv: run_id=%q error=%q", items[1].RunID, items[1].Error)
	}
	if !strings.Contains(items[1].Error, "bad.csv") {
		t.Fatalf("bad.csv error does not name the file: %q", items[1].Error)
	}
	if items[2].RunID == "" || items[2].Error != "" {
		t.Fatalf("good file c.csv: run_id=%q error=%q", items[2].RunID, items[2].Error)
	}

	runs, err := env.extract.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("persisted %d runs, want 2", len(runs))
	}
}

func TestExtractBulkRejectsOverCap(t *testing.T) {
	env := newTestEnv(t)

	inputs := make([]extraction.Input, 51)
	for i := range inputs {
		inputs[i] = extraction.Input{FileName: "f.txt", Data: []byte("x")}
	}
	_, err := env.extract.ExtractBulk(context.Background(), inputs)
	if !apperr.IsCode(err, apperr.CodeInvalidArgument) {
		t.Fatalf("over-cap bulk: got %v, want invalid_argument", err)
	}
}
