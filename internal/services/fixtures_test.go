package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/comparison"
	"github.com/docparity/docparity-backend/internal/extraction"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/types"
)

type testEnv struct {
	db      *gorm.DB
	extract ExtractionService
	compare ComparisonService
	link    LinkService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.ExtractionRun{}, &types.ComparisonReportRow{}, &types.DocumentLink{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log := logger.NewNop()
	runRepo := repos.NewExtractionRunRepo(db, log)
	reportRepo := repos.NewComparisonReportRepo(db, log)
	linkRepo := repos.NewDocumentLinkRepo(db, log)

	extractSvc := NewExtractionService(db, log, runRepo, extraction.NewBuiltin(), 50, 4, 1<<20)
	compareSvc := NewComparisonService(db, log, runRepo, reportRepo, extractSvc,
		comparison.NewEngine(comparison.DefaultOptions(), rulepack.Default()))
	linkSvc := NewLinkService(db, log, linkRepo, runRepo, compareSvc)

	return &testEnv{
		db:      db,
		extract: extractSvc,
		compare: compareSvc,
		link:    linkSvc,
	}
}

func mustRun(t *testing.T, env *testEnv, name, content string) string {
	t.Helper()
	run, err := env.extract.ExtractSync(context.Background(), extraction.Input{
		FileName: name,
		Data:     []byte(content),
	})
	if err != nil {
		t.Fatalf("extract %s: %v", name, err)
	}
	return run.RunID
}
