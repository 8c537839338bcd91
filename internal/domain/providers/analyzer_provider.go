package providers

import (
	"context"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
)

// AnalyzerResultKind tags the outcome of a structured-extraction call.
type AnalyzerResultKind int

const (
	// ResultUnreachable means the analyzer could not be reached or answered
	// with a transport-level failure.
	ResultUnreachable AnalyzerResultKind = iota
	// ResultMalformed means a reply arrived but no usable structured object
	// could be parsed out of it.
	ResultMalformed
	// ResultAccepted means Fields holds the parsed reply.
	ResultAccepted
)

func (k AnalyzerResultKind) String() string {
	switch k {
	case ResultAccepted:
		return "accepted"
	case ResultMalformed:
		return "malformed"
	default:
		return "unreachable"
	}
}

// AnalyzerResult is the outcome of AnalyzerProvider.Extract.
type AnalyzerResult struct {
	Kind   AnalyzerResultKind
	Fields entities.AnalyzerFields
	Raw    string
	Err    error
}

// Accepted wraps parsed fields.
func Accepted(fields entities.AnalyzerFields, raw string) AnalyzerResult {
	return AnalyzerResult{Kind: ResultAccepted, Fields: fields, Raw: raw}
}

// Malformed records a reply that could not be parsed.
func Malformed(raw string, err error) AnalyzerResult {
	return AnalyzerResult{Kind: ResultMalformed, Raw: raw, Err: err}
}

// Unreachable records a transport failure.
func Unreachable(err error) AnalyzerResult {
	return AnalyzerResult{Kind: ResultUnreachable, Err: err}
}

// AnalyzerProvider is an external text analyzer able to return the record
// fields as structured data.
type AnalyzerProvider interface {
	// Probe reports whether the analyzer answers a lightweight request. It
	// never returns an error; any failure reads as unreachable.
	Probe(ctx context.Context) bool

	// Extract asks the analyzer for the record fields found in text.
	Extract(ctx context.Context, text string) AnalyzerResult

	// Model names the analyzer model in use.
	Model() string
}
