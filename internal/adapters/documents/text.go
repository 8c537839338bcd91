package documents

import (
	"context"
	"strings"
)

// PlainTextExtractor passes text files through.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Supports reports whether the file is a text file.
func (e *PlainTextExtractor) Supports(fileName string) bool {
	return hasExtension(fileName, ".txt", ".text", ".md", ".csv")
}

// ExtractText returns the file content with invalid UTF-8 replaced.
func (e *PlainTextExtractor) ExtractText(ctx context.Context, fileName string, content []byte) (string, error) {
	text := strings.ToValidUTF8(string(content), "�")
	return strings.TrimPrefix(text, "\uFEFF"), nil
}
