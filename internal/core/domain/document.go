package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxContentBytes bounds Document.Content.
const MaxContentBytes = 1 << 20

// SourceType records what kind of file a document's text was extracted from.
type SourceType string

// Supported source types.
const (
	SourceTypeText     SourceType = "text"
	SourceTypeMarkdown SourceType = "markdown"
	SourceTypeCode     SourceType = "code"
	SourceTypePDF      SourceType = "pdf"
	SourceTypeCSV      SourceType = "csv"
	SourceTypeExcel    SourceType = "excel"
	SourceTypeHTML     SourceType = "html"
	SourceTypeJSON     SourceType = "json"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeText, SourceTypeMarkdown, SourceTypeCode, SourceTypePDF,
		SourceTypeCSV, SourceTypeExcel, SourceTypeHTML, SourceTypeJSON:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".c": true, ".h": true, ".cpp": true, ".rs": true, ".rb": true,
	".sh": true, ".sql": true, ".kt": true, ".swift": true, ".cs": true, ".php": true,
}

// SourceTypeForPath guesses the source type from a file extension.
// Unknown extensions are treated as plain text.
func SourceTypeForPath(path string) SourceType {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return SourceTypeMarkdown
	case ".pdf":
		return SourceTypePDF
	case ".csv", ".tsv":
		return SourceTypeCSV
	case ".xls", ".xlsx":
		return SourceTypeExcel
	case ".html", ".htm":
		return SourceTypeHTML
	case ".json":
		return SourceTypeJSON
	}
	if codeExtensions[ext] {
		return SourceTypeCode
	}
	return SourceTypeText
}

// Document is a unit of extracted text handed to the core for indexing.
// Once embedded its content is treated as immutable; re-embedding produces
// a new vector record rather than modifying the document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the extracted plain text.
	Content string

	// SourceType is the kind of file the text came from.
	SourceType SourceType

	// URI is the original location (file path, URL), if any.
	URI string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last replaced.
	UpdatedAt time.Time
}

// Validate checks the document can be ingested.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: document %s has no content", ErrInvalidInput, d.ID)
	}
	if len(d.Content) > MaxContentBytes {
		return fmt.Errorf("%w: document %s content is %d bytes, limit is %d",
			ErrInvalidInput, d.ID, len(d.Content), MaxContentBytes)
	}
	if d.SourceType != "" && !d.SourceType.IsValid() {
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, d.SourceType)
	}
	return nil
}

// DisplayTitle returns the title, falling back to the URI and then the ID.
func (d Document) DisplayTitle() string {
	switch {
	case d.Title != "":
		return d.Title
	case d.URI != "":
		return filepath.Base(d.URI)
	default:
		return d.ID
	}
}
