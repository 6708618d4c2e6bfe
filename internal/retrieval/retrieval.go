// Package retrieval extracts document text for the audit pipeline. The
// orchestrator treats any extraction error as fatal: without text there is
// nothing to review.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyDocument is returned when the extracted document has no content.
var ErrEmptyDocument = errors.New("retrieval: document is empty")

// Document is an immutable text snapshot of one source document. Pages are
// split on form-feed; each page holds its lines. Reviewers read it, never
// write it, so the same snapshot is safely shared across parallel stages.
type Document struct {
	Ref   string
	Pages [][]string
}

// LineCount returns the total number of lines across all pages.
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p)
	}
	return n
}

// Text reassembles the full document text, pages joined with form-feeds.
func (d *Document) Text() string {
	pages := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = strings.Join(p, "\n")
	}
	return strings.Join(pages, "\f")
}

// Retriever is the external collaborator that turns a document reference
// into text.
type Retriever interface {
	Extract(ctx context.Context, ref string) (*Document, error)
}

// Compile-time check.
var _ Retriever = (*FileRetriever)(nil)

// FileRetriever reads UTF-8 text or markdown documents from disk. The
// document reference is a file path; form-feed characters delimit pages.
type FileRetriever struct{}

// NewFileRetriever creates a FileRetriever.
func NewFileRetriever() *FileRetriever {
	return &FileRetriever{}
}

// Extract reads the file at ref and splits it into pages and lines. An
// unreadable or effectively empty file is an error.
func (f *FileRetriever) Extract(ctx context.Context, ref string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("retrieval: reading %s: %w", ref, err)
	}

	return ParseDocument(ref, string(data))
}

// ParseDocument splits raw text into the page/line structure. Exposed so
// tests and in-memory retrievers can build documents without the filesystem.
func ParseDocument(ref, text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, ref)
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	doc := &Document{Ref: ref}
	for _, page := range strings.Split(normalized, "\f") {
		page = strings.TrimSuffix(page, "\n")
		doc.Pages = append(doc.Pages, strings.Split(page, "\n"))
	}
	return doc, nil
}

// MemRetriever serves documents from an in-memory map, keyed by reference.
// Used by tests and by the MCP tools when content is passed inline.
type MemRetriever struct {
	docs map[string]string
}

// NewMemRetriever creates a MemRetriever over the given ref→text map.
func NewMemRetriever(docs map[string]string) *MemRetriever {
	return &MemRetriever{docs: docs}
}

// Extract parses the stored text for ref.
func (m *MemRetriever) Extract(ctx context.Context, ref string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, ok := m.docs[ref]
	if !ok {
		return nil, fmt.Errorf("retrieval: no document for ref %q", ref)
	}
	return ParseDocument(ref, text)
}
