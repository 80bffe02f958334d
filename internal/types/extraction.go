package types

import (
	"fmt"
	"time"
)

// Canonical extraction model. Field names are normative for the persisted
// JSON schema; every consumer (scorer, differ, store) works off these shapes.

const (
	PartTypePage       = "page"
	PartTypeSheet      = "sheet"
	PartTypeSlide      = "slide"
	PartTypeAttachment = "attachment"
	PartTypeEmbedded   = "embedded"
)

const (
	BlockTypeText      = "text"
	BlockTypeLine      = "line"
	BlockTypeWord      = "word"
	BlockTypeKV        = "kv"
	BlockTypeTable     = "table"
	BlockTypeCell      = "cell"
	BlockTypeSelection = "selection"
	BlockTypeSignature = "signature"
)

const (
	RelationContains    = "contains"
	RelationReferences  = "references"
	RelationChildOf     = "child_of"
	RelationDerivedFrom = "derived_from"
)

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Geometry struct {
	Type   string               `json:"type"` // box | polygon
	Bounds *Bounds              `json:"bounds,omitempty"`
	Points []map[string]float64 `json:"points,omitempty"`
}

type TechnicalMetadata struct {
	FileName              string    `json:"file_name"`
	MimeType              string    `json:"mime_type"`
	Extension             string    `json:"extension,omitempty"`
	FileSizeBytes         int64     `json:"file_size_bytes"`
	HashSHA256            string    `json:"hash_sha256"`
	HashMD5               string    `json:"hash_md5,omitempty"`
	CreatedAtIngested     time.Time `json:"created_at_ingested"`
	SourceSystem          string    `json:"source_system,omitempty"`
	SourceURI             string    `json:"source_uri,omitempty"`
	EncryptionFlag        bool      `json:"encryption_flag"`
	PasswordProtectedFlag bool      `json:"password_protected_flag"`
	EmbeddedObjectCount   *int      `json:"embedded_object_count,omitempty"`
}

// EmbeddedMetadata is sparse: fields are present only when the source format
// carries them. Extras holds format-native keys outside the common set.
type EmbeddedMetadata struct {
	Title          string           `json:"title,omitempty"`
	Author         string           `json:"author,omitempty"`
	Creator        string           `json:"creator,omitempty"`
	Producer       string           `json:"producer,omitempty"`
	CreationDate   string           `json:"creation_date,omitempty"`
	ModifiedDate   string           `json:"modified_date,omitempty"`
	PageCount      *int             `json:"page_count,omitempty"`
	EXIF           map[string]any   `json:"exif,omitempty"`
	LastModifiedBy string           `json:"last_modified_by,omitempty"`
	Revision       string           `json:"revision,omitempty"`
	FromAddr       string           `json:"from,omitempty"`
	ToAddr         string           `json:"to_addr,omitempty"`
	CC             string           `json:"cc,omitempty"`
	BCC            string           `json:"bcc,omitempty"`
	Date           string           `json:"date,omitempty"`
	Subject        string           `json:"subject,omitempty"`
	MessageID      string           `json:"message_id,omitempty"`
	Attachments    []map[string]any `json:"attachments,omitempty"`
	Extras         map[string]any   `json:"extras,omitempty"`
}

type ContentMetadata struct {
	Language           string         `json:"language,omitempty"`
	LanguageConfidence *float64       `json:"language_confidence,omitempty"`
	PageCount          *int           `json:"page_count,omitempty"`
	SheetCount         *int           `json:"sheet_count,omitempty"`
	SlideCount         *int           `json:"slide_count,omitempty"`
	TextLength         int            `json:"text_length"`
	WordCount          int            `json:"word_count"`
	TableCount         int            `json:"table_count"`
	FormFieldCount     int            `json:"form_field_count"`
	SelectionCount     int            `json:"selection_count"`
	SignatureCount     int            `json:"signature_count"`
	EntityCounts       map[string]int `json:"entity_counts,omitempty"`
}

type DocumentRoot struct {
	ID                string             `json:"id"`
	TechnicalMetadata TechnicalMetadata  `json:"technical_metadata"`
	EmbeddedMetadata  *EmbeddedMetadata  `json:"embedded_metadata,omitempty"`
	ContentMetadata   *ContentMetadata   `json:"content_metadata,omitempty"`
	Confidence        *float64           `json:"confidence,omitempty"`
}

type Part struct {
	ID         string         `json:"id"`
	PartType   string         `json:"part_type"`
	Index      int            `json:"index"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	BlockIDs   []string       `json:"blocks"`
	Confidence *float64       `json:"confidence,omitempty"`
	Geometry   *Geometry      `json:"geometry,omitempty"`
}

type Block struct {
	ID         string    `json:"id"`
	BlockType  string    `json:"block_type"`
	PartID     string    `json:"part_id,omitempty"`
	Content    string    `json:"content,omitempty"`
	Value      any       `json:"value,omitempty"`
	Key        string    `json:"key,omitempty"`
	Cells      [][]any   `json:"cells,omitempty"`
	Rows       *int      `json:"rows,omitempty"`
	Cols       *int      `json:"cols,omitempty"`
	State      string    `json:"state,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	Geometry   *Geometry `json:"geometry,omitempty"`
	Children   []string  `json:"children,omitempty"`
}

type Relationship struct {
	SourceID     string `json:"source_id"`
	TargetID     string `json:"target_id"`
	RelationType string `json:"relation_type"`
}

type Provenance struct {
	RunID               string         `json:"run_id"`
	ExtractorVersion    string         `json:"extractor_version"`
	ExtractorName       string         `json:"extractor_name"`
	SourceURI           string         `json:"source_uri,omitempty"`
	ExtractionTimestamp time.Time      `json:"extraction_timestamp"`
	Settings            map[string]any `json:"settings,omitempty"`
}

type ExtractionResult struct {
	Document      DocumentRoot   `json:"document"`
	Parts         []Part         `json:"parts"`
	Blocks        []Block        `json:"blocks"`
	Relationships []Relationship `json:"relationships"`
	Provenance    Provenance     `json:"provenance"`
}

// Validate checks the invariants the comparison engine relies on: unique ids,
// confidences in [0,1], acyclic block parent/child relations with single
// parents, and part block references resolving within the run.
func (r *ExtractionResult) Validate() error {
	if r.Provenance.RunID == "" {
		return fmt.Errorf("provenance.run_id is required")
	}
	blocks := make(map[string]*Block, len(r.Blocks))
	for i := range r.Blocks {
		b := &r.Blocks[i]
		if b.ID == "" {
			return fmt.Errorf("blocks[%d].id is required", i)
		}
		if _, dup := blocks[b.ID]; dup {
			return fmt.Errorf("duplicate block id %q", b.ID)
		}
		if err := checkConfidence(b.Confidence, "blocks", b.ID); err != nil {
			return err
		}
		blocks[b.ID] = b
	}
	partIDs := make(map[string]bool, len(r.Parts))
	for i := range r.Parts {
		p := &r.Parts[i]
		if p.ID == "" {
			return fmt.Errorf("parts[%d].id is required", i)
		}
		if partIDs[p.ID] {
			return fmt.Errorf("duplicate part id %q", p.ID)
		}
		partIDs[p.ID] = true
		if err := checkConfidence(p.Confidence, "parts", p.ID); err != nil {
			return err
		}
		for _, bid := range p.BlockIDs {
			if _, ok := blocks[bid]; !ok {
				return fmt.Errorf("part %q references unknown block %q", p.ID, bid)
			}
		}
	}
	if err := checkConfidence(r.Document.Confidence, "document", r.Document.ID); err != nil {
		return err
	}
	parentOf := make(map[string]string)
	for id, b := range blocks {
		for _, child := range b.Children {
			if _, ok := blocks[child]; !ok {
				return fmt.Errorf("block %q references unknown child %q", id, child)
			}
			if prev, claimed := parentOf[child]; claimed && prev != id {
				return fmt.Errorf("block %q has multiple parents (%q, %q)", child, prev, id)
			}
			parentOf[child] = id
		}
	}
	// Walking parent links terminates iff the ownership graph is acyclic.
	for id := range blocks {
		seen := map[string]bool{}
		cur := id
		for {
			parent, ok := parentOf[cur]
			if !ok {
				break
			}
			if seen[parent] {
				return fmt.Errorf("block ownership cycle involving %q", parent)
			}
			seen[parent] = true
			cur = parent
		}
	}
	return nil
}

func checkConfidence(c *float64, kind, id string) error {
	if c == nil {
		return nil
	}
	if *c < 0 || *c > 1 {
		return fmt.Errorf("%s %q confidence %v outside [0,1]", kind, id, *c)
	}
	return nil
}

// ConcatenatedText joins all text-bearing block content in block order.
func (r *ExtractionResult) ConcatenatedText() string {
	out := ""
	for i := range r.Blocks {
		if r.Blocks[i].Content == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += r.Blocks[i].Content
	}
	return out
}
