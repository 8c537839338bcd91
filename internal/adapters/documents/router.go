// Package documents converts uploaded documents into plain text.
package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
)

// Router dispatches to the first extractor that supports a file.
type Router struct {
	extractors []providers.DocumentTextExtractor
}

var _ providers.DocumentTextExtractor = (*Router)(nil)

// NewRouter creates a router over the given extractors.
func NewRouter(extractors ...providers.DocumentTextExtractor) *Router {
	return &Router{extractors: extractors}
}

// NewDefaultRouter handles PDF, spreadsheet and plain text documents.
func NewDefaultRouter() *Router {
	return NewRouter(NewPDFExtractor(), NewSpreadsheetExtractor(), NewPlainTextExtractor())
}

// Supports reports whether any extractor handles the file.
func (r *Router) Supports(fileName string) bool {
	return r.find(fileName) != nil
}

// ExtractText extracts text with the matching extractor.
func (r *Router) ExtractText(ctx context.Context, fileName string, content []byte) (string, error) {
	ex := r.find(fileName)
	if ex == nil {
		return "", fmt.Errorf("no extractor for %q", fileName)
	}
	return ex.ExtractText(ctx, fileName, content)
}

func (r *Router) find(fileName string) providers.DocumentTextExtractor {
	for _, ex := range r.extractors {
		if ex.Supports(fileName) {
			return ex
		}
	}
	return nil
}

func hasExtension(fileName string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
