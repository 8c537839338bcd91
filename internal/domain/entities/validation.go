package entities

// ValidationStatus is the outcome of document validation.
type ValidationStatus string

const (
	ValidationStatusValid          ValidationStatus = "VALID"
	ValidationStatusRequiresReview ValidationStatus = "REQUIRES_REVIEW"
)

// ValidationResult summarizes the checks run against an extraction record.
type ValidationResult struct {
	Status          ValidationStatus `json:"status"`
	Issues          []string         `json:"issues"`
	Recommendations []string         `json:"recommendations"`
	Confidence      float64          `json:"confidence"`
}

// IsValid reports whether no issue was raised.
func (v ValidationResult) IsValid() bool {
	return v.Status == ValidationStatusValid
}
