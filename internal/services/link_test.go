package services

import (
	"context"
	"testing"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/types"
)

func TestCreateLinkIdempotentByPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	left := mustRun(t, env, "left.txt", "alpha beta gamma")
	right := mustRun(t, env, "right.txt", "alpha beta delta")

	first, err := env.link.CreateLink(ctx, left, right, "related")
	if err != nil {
		t.Fatalf("first CreateLink: %v", err)
	}
	if first.Link.ComparisonReportID == "" {
		t.Fatal("first link has no report attached")
	}
	if first.Report == nil || first.Report.ID != first.Link.ComparisonReportID {
		t.Fatalf("first link report mismatch: %+v", first.Report)
	}

	second, err := env.link.CreateLink(ctx, left, right, "duplicate-attempt")
	if err != nil {
		t.Fatalf("second CreateLink: %v", err)
	}
	if second.Link.ID != first.Link.ID {
		t.Fatalf("second create made a new link: %s vs %s", second.Link.ID, first.Link.ID)
	}
	if second.Link.ComparisonReportID != first.Link.ComparisonReportID {
		t.Fatalf("report id changed on repeat create: %s vs %s",
			second.Link.ComparisonReportID, first.Link.ComparisonReportID)
	}
	if second.Link.Label != "related" {
		t.Fatalf("repeat create overwrote label: %q", second.Link.Label)
	}

	var reportCount int64
	if err := env.db.Model(&types.ComparisonReportRow{}).
		Where("left_run_id = ? AND right_run_id = ?", left, right).
		Count(&reportCount).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if reportCount != 1 {
		t.Fatalf("pair has %d reports, want exactly 1", reportCount)
	}
}

func TestCreateLinkReusesExistingPairReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	left := mustRun(t, env, "left.txt", "alpha beta")
	right := mustRun(t, env, "right.txt", "alpha beta")

	report, err := env.compare.CompareRuns(ctx, left, right, CompareOverrides{})
	if err != nil {
		t.Fatalf("CompareRuns: %v", err)
	}

	created, err := env.link.CreateLink(ctx, left, right, "")
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if created.Link.ComparisonReportID != report.ID {
		t.Fatalf("link got report %s, want the pre-existing %s",
			created.Link.ComparisonReportID, report.ID)
	}
	if created.Link.Label != "related" {
		t.Fatalf("empty label not defaulted: %q", created.Link.Label)
	}
}

func TestCreateLinkRejectsSelfAndUnknownRuns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	run := mustRun(t, env, "only.txt", "alpha")

	if _, err := env.link.CreateLink(ctx, run, run, ""); !apperr.IsCode(err, apperr.CodeInvalidArgument) {
		t.Fatalf("self link: got %v, want invalid_argument", err)
	}
	if _, err := env.link.CreateLink(ctx, run, "no-such-run", ""); !apperr.IsCode(err, apperr.CodeInvalidArgument) {
		t.Fatalf("unknown run: got %v, want invalid_argument", err)
	}
}
