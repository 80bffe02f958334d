package app

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	redisclient "github.com/docparity/docparity-backend/internal/clients/redis"
	"github.com/docparity/docparity-backend/internal/comparison"
	"github.com/docparity/docparity-backend/internal/extraction"
	"github.com/docparity/docparity-backend/internal/jobs"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/rulepack"
	"github.com/docparity/docparity-backend/internal/services"
)

type Services struct {
	Extraction services.ExtractionService
	Comparison services.ComparisonService
	Link       services.LinkService
	Job        services.JobService
	Notifier   services.JobNotifier
	JobWorker  *jobs.Worker
	JobBus     redisclient.JobBus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	rules, err := rulepack.Load(cfg.RulePackPath)
	if err != nil {
		return Services{}, fmt.Errorf("load rule pack: %w", err)
	}
	engine := comparison.NewEngine(cfg.Comparison, rules)

	var (
		notifier services.JobNotifier
		bus      redisclient.JobBus
	)
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		bus, err = redisclient.NewJobBus(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis job bus: %w", err)
		}
		notifier = services.NewBusNotifier(bus, log)
	} else {
		log.Info("REDIS_ADDR unset; job events disabled")
		notifier = services.NewNopNotifier()
	}

	extractionSvc := services.NewExtractionService(
		db, log, reposet.ExtractionRun, extraction.NewBuiltin(),
		cfg.BulkCap, cfg.BulkWorkers, cfg.MaxUploadBytes,
	)
	comparisonSvc := services.NewComparisonService(
		db, log, reposet.ExtractionRun, reposet.ComparisonReport, extractionSvc, engine,
	)
	linkSvc := services.NewLinkService(
		db, log, reposet.DocumentLink, reposet.ExtractionRun, comparisonSvc,
	)
	jobSvc := services.NewJobService(db, log, reposet.JobRun, notifier)

	registry := jobs.NewRegistry()
	if err := registry.Register(jobs.NewExtractionJob(log, extractionSvc)); err != nil {
		return Services{}, err
	}
	if err := registry.Register(jobs.NewComparisonJob(log, comparisonSvc)); err != nil {
		return Services{}, err
	}
	worker := jobs.NewWorker(db, log, reposet.JobRun, registry, notifier, cfg.JobWorkerCount)

	return Services{
		Extraction: extractionSvc,
		Comparison: comparisonSvc,
		Link:       linkSvc,
		Job:        jobSvc,
		Notifier:   notifier,
		JobWorker:  worker,
		JobBus:     bus,
	}, nil
}
