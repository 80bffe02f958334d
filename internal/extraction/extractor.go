package extraction

import (
	"context"

	"github.com/docparity/docparity-backend/internal/types"
)

// Input is one file handed to an extractor. Data is the full content; the
// service layer enforces upload caps before it gets here.
type Input struct {
	FileName     string
	Data         []byte
	SourceSystem string
	SourceURI    string
}

// Extractor turns raw file bytes into a canonical ExtractionResult. Real
// format-specific engines plug in behind this interface; the built-in
// extractor covers identification plus plain-text and CSV content.
type Extractor interface {
	Name() string
	Version() string
	Extract(ctx context.Context, in Input) (*types.ExtractionResult, error)
}
