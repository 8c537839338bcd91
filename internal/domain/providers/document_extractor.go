package providers

import "context"

// DocumentTextExtractor turns an uploaded document into plain text.
type DocumentTextExtractor interface {
	// Supports reports whether the extractor handles the named file.
	Supports(fileName string) bool

	// ExtractText returns the document text.
	ExtractText(ctx context.Context, fileName string, content []byte) (string, error)
}

// IdentifierGenerator produces placeholder record identifiers.
type IdentifierGenerator interface {
	Generate() string
}
