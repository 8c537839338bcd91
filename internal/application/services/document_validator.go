package services

import (
	"strings"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
)

// Validation messages.
const (
	IssueMissingIdentifier = "Missing Medicaid ID"
	IssueDiagnosisPending  = "Diagnosis pending review"
	IssueLowConfidence     = "Low extraction confidence; manual review recommended"

	RecommendAIAssisted = "Document processed with AI-assisted extraction"
	RecommendVerify     = "Verify extracted values against the source document for accuracy"
)

// LowConfidenceThreshold is the confidence below which a record needs review.
const LowConfidenceThreshold = 0.7

// ValidateDocument runs the document-level checks. Each rule is independent
// and the status is VALID only when no rule fires.
func ValidateDocument(record entities.ExtractionRecord) entities.ValidationResult {
	issues := make([]string, 0, 3)

	id := record.Identifier()
	if strings.TrimSpace(id) == "" || IsPlaceholder(id) || record.FieldSource(entities.FieldIdentifier) == entities.TierSynthetic {
		issues = append(issues, IssueMissingIdentifier)
	}

	primary := strings.ToLower(record.Diagnosis().Primary)
	if strings.Contains(primary, "unknown") || strings.Contains(primary, "pending") {
		issues = append(issues, IssueDiagnosisPending)
	}

	if record.Confidence() < LowConfidenceThreshold {
		issues = append(issues, IssueLowConfidence)
	}

	status := entities.ValidationStatusValid
	if len(issues) > 0 {
		status = entities.ValidationStatusRequiresReview
	}

	return entities.ValidationResult{
		Status:          status,
		Issues:          issues,
		Recommendations: []string{RecommendAIAssisted, RecommendVerify},
		Confidence:      record.Confidence(),
	}
}
