package app

import (
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/repos"
)

type Repos struct {
	ExtractionRun    repos.ExtractionRunRepo
	ComparisonReport repos.ComparisonReportRepo
	DocumentLink     repos.DocumentLinkRepo
	JobRun           repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		ExtractionRun:    repos.NewExtractionRunRepo(db, log),
		ComparisonReport: repos.NewComparisonReportRepo(db, log),
		DocumentLink:     repos.NewDocumentLinkRepo(db, log),
		JobRun:           repos.NewJobRunRepo(db, log),
	}
}
