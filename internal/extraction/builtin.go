package extraction

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/docparity/docparity-backend/internal/types"
)

const (
	builtinName    = "builtin"
	builtinVersion = "1.0.0"
)

// mimeByExtension identifies common document formats without inspecting
// bytes. Unknown extensions fall back to application/octet-stream.
var mimeByExtension = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"html": "text/html",
	"json": "application/json",
	"xml":  "application/xml",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tiff": "image/tiff",
	"eml":  "message/rfc822",
}

// Builtin is the minimal extractor: hashing and MIME identification for any
// file, plus content extraction for plain text, markdown, and CSV. Other
// formats get an identification-only result rather than an error, so the run
// registry can still record and compare them at the metadata level.
type Builtin struct{}

func NewBuiltin() *Builtin { return &Builtin{} }

func confPtr(v float64) *float64 { return &v }

func (b *Builtin) Name() string    { return builtinName }
func (b *Builtin) Version() string { return builtinVersion }

func (b *Builtin) Extract(ctx context.Context, in Input) (*types.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.FileName), "."))
	mimeType, known := mimeByExtension[ext]
	if !known {
		mimeType = "application/octet-stream"
	}

	sha := sha256.Sum256(in.Data)
	md := md5.Sum(in.Data)

	result := &types.ExtractionResult{
		Document: types.DocumentRoot{
			ID: uuid.NewString(),
			TechnicalMetadata: types.TechnicalMetadata{
				FileName:          in.FileName,
				MimeType:          mimeType,
				Extension:         ext,
				FileSizeBytes:     int64(len(in.Data)),
				HashSHA256:        hex.EncodeToString(sha[:]),
				HashMD5:           hex.EncodeToString(md[:]),
				CreatedAtIngested: time.Now().UTC(),
				SourceSystem:      in.SourceSystem,
				SourceURI:         in.SourceURI,
			},
		},
		Parts:         []types.Part{},
		Blocks:        []types.Block{},
		Relationships: []types.Relationship{},
		Provenance: types.Provenance{
			RunID:               uuid.NewString(),
			ExtractorName:       builtinName,
			ExtractorVersion:    builtinVersion,
			SourceURI:           in.SourceURI,
			ExtractionTimestamp: time.Now().UTC(),
		},
	}

	switch mimeType {
	case "text/plain", "text/markdown":
		b.extractText(result, in.Data)
	case "text/csv":
		if err := b.extractCSV(result, in.Data); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// extractText produces one page part with a text block per paragraph (blank
// line separated). Non-UTF-8 content stays identification-only.
func (b *Builtin) extractText(result *types.ExtractionResult, data []byte) {
	if !utf8.Valid(data) {
		return
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	full := confPtr(1)

	part := types.Part{
		ID:         uuid.NewString(),
		PartType:   types.PartTypePage,
		Index:      0,
		Confidence: full,
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		block := types.Block{
			ID:         uuid.NewString(),
			BlockType:  types.BlockTypeText,
			PartID:     part.ID,
			Content:    para,
			Confidence: confPtr(1),
		}
		part.BlockIDs = append(part.BlockIDs, block.ID)
		result.Blocks = append(result.Blocks, block)
		result.Relationships = append(result.Relationships, types.Relationship{
			SourceID: part.ID, TargetID: block.ID, RelationType: types.RelationContains,
		})
	}
	result.Parts = append(result.Parts, part)

	one := 1
	result.Document.ContentMetadata = &types.ContentMetadata{
		PageCount:  &one,
		TextLength: len(text),
		WordCount:  len(strings.Fields(text)),
	}
	result.Document.Confidence = full
}

// extractCSV produces one sheet part holding a single table block.
func (b *Builtin) extractCSV(result *types.ExtractionResult, data []byte) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	cells := make([][]any, len(records))
	cols := 0
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		cells[i] = row
		if len(rec) > cols {
			cols = len(rec)
		}
	}
	rows := len(records)
	full := confPtr(1)

	part := types.Part{
		ID:         uuid.NewString(),
		PartType:   types.PartTypeSheet,
		Index:      0,
		Confidence: full,
	}
	table := types.Block{
		ID:         uuid.NewString(),
		BlockType:  types.BlockTypeTable,
		PartID:     part.ID,
		Cells:      cells,
		Rows:       &rows,
		Cols:       &cols,
		Confidence: confPtr(1),
	}
	part.BlockIDs = []string{table.ID}
	result.Parts = append(result.Parts, part)
	result.Blocks = append(result.Blocks, table)
	result.Relationships = append(result.Relationships, types.Relationship{
		SourceID: part.ID, TargetID: table.ID, RelationType: types.RelationContains,
	})

	one := 1
	result.Document.ContentMetadata = &types.ContentMetadata{
		SheetCount: &one,
		TableCount: 1,
	}
	result.Document.Confidence = full
	return nil
}
