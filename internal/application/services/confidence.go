package services

import "github.com/zatekoja/medicaid-docextract/internal/domain/entities"

// Confidence is a fixed trust level per provenance tier, not a per-match score.
const (
	ConfidenceAI      = 0.85
	ConfidencePattern = 0.8
	ConfidenceMinimal = 0.6
)

// Processing source labels reported on each record.
const (
	SourceAIAnalyzer        = "AI Analyzer"
	SourcePatternExtraction = "Pattern Extraction"
	SourceMinimalFallback   = "Minimal Fallback"
)

// keyFields decide whether a fallback record counts as pattern-backed.
var keyFields = []entities.Field{
	entities.FieldPatientName,
	entities.FieldIdentifier,
	entities.FieldDateOfBirth,
}

// AssignConfidence maps the path that produced a record to its confidence
// and processing source label.
func AssignConfidence(method entities.ProcessingMethod, sources map[entities.Field]entities.Tier) (float64, string) {
	if method == entities.ProcessingMethodAI {
		return ConfidenceAI, SourceAIAnalyzer
	}
	for _, f := range keyFields {
		if sources[f] == entities.TierPattern {
			return ConfidencePattern, SourcePatternExtraction
		}
	}
	return ConfidenceMinimal, SourceMinimalFallback
}
