package app

import (
	"github.com/docparity/docparity-backend/internal/handlers"
	"github.com/docparity/docparity-backend/internal/logger"
)

type Handlers struct {
	Extraction *handlers.ExtractionHandler
	Comparison *handlers.ComparisonHandler
	Link       *handlers.LinkHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Extraction: handlers.NewExtractionHandler(serviceset.Extraction, serviceset.Job),
		Comparison: handlers.NewComparisonHandler(serviceset.Comparison, serviceset.Job),
		Link:       handlers.NewLinkHandler(serviceset.Link),
	}
}
