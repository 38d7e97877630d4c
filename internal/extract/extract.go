// Package extract turns files into documents ready for ingestion.
// Markdown and HTML are reduced to plain text; other text files are kept
// as-is. Binary formats are rejected.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// ErrUnsupported is returned for files whose text cannot be extracted.
var ErrUnsupported = errors.New("unsupported file type")

// DocumentID returns the stable id of the document extracted from path,
// so re-ingesting a file replaces its previous version.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// File reads and extracts the file at path.
func File(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, err
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > domain.MaxContentBytes*4 {
		return domain.Document{}, fmt.Errorf("%w: %s is %d bytes", domain.ErrInvalidInput, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return Bytes(path, data)
}

// Bytes extracts a document from data, using path for the id, title and
// source type.
func Bytes(path string, data []byte) (domain.Document, error) {
	sourceType := domain.SourceTypeForPath(path)
	switch sourceType {
	case domain.SourceTypePDF, domain.SourceTypeExcel:
		return domain.Document{}, fmt.Errorf("%w: %s (%s)", ErrUnsupported, filepath.Base(path), sourceType)
	}
	if !utf8.Valid(data) {
		return domain.Document{}, fmt.Errorf("%w: %s is not UTF-8 text", ErrUnsupported, filepath.Base(path))
	}

	raw := string(data)
	var title, content string
	switch sourceType {
	case domain.SourceTypeMarkdown:
		title = markdownTitle(raw)
		content = stripMarkdown(raw)
	case domain.SourceTypeHTML:
		title = htmlTitle(raw)
		content = stripHTML(raw)
	default:
		content = strings.TrimSpace(raw)
	}
	if title == "" {
		title = titleFromPath(path)
	}

	return domain.Document{
		ID:         DocumentID(path),
		Title:      title,
		Content:    content,
		SourceType: sourceType,
		URI:        path,
		Metadata: map[string]any{
			"file_name": filepath.Base(path),
			"size":      len(data),
		},
	}, nil
}

// titleFromPath derives a readable title from a file name.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
