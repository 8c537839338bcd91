package entities

import (
	"encoding/json"
	"time"
)

// ProcessingMethod records which path produced a record.
type ProcessingMethod string

const (
	ProcessingMethodAI       ProcessingMethod = "ai"
	ProcessingMethodFallback ProcessingMethod = "fallback"
)

// DocumentTypeMedicaidClaim is the only document type currently recognized.
const DocumentTypeMedicaidClaim = "medicaid_claim"

// DocumentResult is returned to callers of the extraction pipeline.
type DocumentResult struct {
	RequestID        string           `json:"requestId"`
	DocumentType     string           `json:"documentType"`
	DocumentName     string           `json:"documentName,omitempty"`
	ExtractedData    ExtractionRecord `json:"extractedData"`
	Validation       ValidationResult `json:"validation"`
	ProcessingTime   time.Duration    `json:"-"`
	Confidence       float64          `json:"confidence"`
	ProcessingMethod ProcessingMethod `json:"processingMethod"`
	FallbackReason   string           `json:"fallbackReason,omitempty"`
}

// MarshalJSON reports ProcessingTime in milliseconds.
func (r DocumentResult) MarshalJSON() ([]byte, error) {
	type alias DocumentResult
	return json.Marshal(struct {
		alias
		ProcessingTimeMs int64 `json:"processingTime"`
	}{
		alias:            alias(r),
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
	})
}
