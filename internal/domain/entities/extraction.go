package entities

import (
	"encoding/json"
	"strings"
)

// NotFound is the sentinel stored in a field when nothing usable was extracted.
const NotFound = "Not found"

// Field identifies one of the seven fields of an extraction record.
type Field string

const (
	FieldPatientName Field = "patientName"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldIdentifier  Field = "identifier"
	FieldDiagnosis   Field = "diagnosis"
	FieldProcedures  Field = "procedures"
	FieldClaimAmount Field = "claimAmount"
	FieldProvider    Field = "provider"

	// FieldDiagnosisCode is an auxiliary field used to collect ICD-10 codes
	// for the structured diagnosis. It is not part of the record schema.
	FieldDiagnosisCode Field = "diagnosisCode"
)

// RecordFields lists the record fields in schema order.
var RecordFields = []Field{
	FieldPatientName,
	FieldDateOfBirth,
	FieldIdentifier,
	FieldDiagnosis,
	FieldProcedures,
	FieldClaimAmount,
	FieldProvider,
}

// Tier is the provenance of an extracted value.
type Tier string

const (
	TierAI        Tier = "ai"
	TierPattern   Tier = "pattern"
	TierEntity    Tier = "entity"
	TierSynthetic Tier = "synthetic"
)

// DocumentMetadata carries optional caller-supplied document details.
type DocumentMetadata struct {
	Name         string `json:"name,omitempty"`
	DeclaredType string `json:"declaredType,omitempty"`
}

// ExtractionRequest is the input to the extraction pipeline. Either Text or a
// file source (Content or FilePath) must be present.
type ExtractionRequest struct {
	RequestID string           `json:"requestId,omitempty"`
	Text      string           `json:"text,omitempty"`
	FilePath  string           `json:"filePath,omitempty"`
	FileName  string           `json:"fileName,omitempty"`
	Content   []byte           `json:"-"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// HasText reports whether inline text is present.
func (r ExtractionRequest) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// HasFile reports whether a file source is present.
func (r ExtractionRequest) HasFile() bool {
	return len(r.Content) > 0 || strings.TrimSpace(r.FilePath) != ""
}

// FieldCandidate is a raw value produced for a field by one of the tiers.
type FieldCandidate struct {
	Field   Field    `json:"field"`
	Value   string   `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
	Tier    Tier     `json:"tier"`
	Pattern string   `json:"pattern,omitempty"`
}

// RecordInput holds the values used to assemble an ExtractionRecord.
type RecordInput struct {
	PatientName      string
	DateOfBirth      string
	Identifier       string
	Diagnosis        Diagnosis
	Procedures       []string
	ClaimAmount      string
	Provider         string
	Confidence       float64
	ProcessingSource string
	FieldSources     map[Field]Tier
}

// ExtractionRecord is the immutable result of an extraction. All seven fields
// are always populated.
type ExtractionRecord struct {
	patientName      string
	dateOfBirth      string
	identifier       string
	diagnosis        Diagnosis
	procedures       []string
	claimAmount      string
	provider         string
	confidence       float64
	processingSource string
	fieldSources     map[Field]Tier
}

// NewExtractionRecord assembles a record, filling empty fields with the
// NotFound sentinel and clamping confidence to [0,1].
func NewExtractionRecord(in RecordInput) ExtractionRecord {
	procedures := make([]string, 0, len(in.Procedures))
	for _, p := range in.Procedures {
		if p = strings.TrimSpace(p); p != "" {
			procedures = append(procedures, p)
		}
	}
	if len(procedures) == 0 {
		procedures = []string{NotFound}
	}

	diagnosis := in.Diagnosis.Clone()
	if strings.TrimSpace(diagnosis.Primary) == "" {
		diagnosis.Primary = NotFound
	}

	sources := make(map[Field]Tier, len(in.FieldSources))
	for k, v := range in.FieldSources {
		sources[k] = v
	}

	return ExtractionRecord{
		patientName:      orNotFound(in.PatientName),
		dateOfBirth:      orNotFound(in.DateOfBirth),
		identifier:       orNotFound(in.Identifier),
		diagnosis:        diagnosis,
		procedures:       procedures,
		claimAmount:      orNotFound(in.ClaimAmount),
		provider:         orNotFound(in.Provider),
		confidence:       clampConfidence(in.Confidence),
		processingSource: in.ProcessingSource,
		fieldSources:     sources,
	}
}

func (r ExtractionRecord) PatientName() string      { return r.patientName }
func (r ExtractionRecord) DateOfBirth() string      { return r.dateOfBirth }
func (r ExtractionRecord) Identifier() string       { return r.identifier }
func (r ExtractionRecord) Diagnosis() Diagnosis     { return r.diagnosis.Clone() }
func (r ExtractionRecord) ClaimAmount() string      { return r.claimAmount }
func (r ExtractionRecord) Provider() string         { return r.provider }
func (r ExtractionRecord) Confidence() float64      { return r.confidence }
func (r ExtractionRecord) ProcessingSource() string { return r.processingSource }

// Procedures returns a copy of the procedure list.
func (r ExtractionRecord) Procedures() []string {
	return append([]string(nil), r.procedures...)
}

// FieldSource returns the tier that produced a field, or "" when unknown.
func (r ExtractionRecord) FieldSource(f Field) Tier {
	return r.fieldSources[f]
}

// Value returns the string form of a single-valued field.
func (r ExtractionRecord) Value(f Field) string {
	switch f {
	case FieldPatientName:
		return r.patientName
	case FieldDateOfBirth:
		return r.dateOfBirth
	case FieldIdentifier:
		return r.identifier
	case FieldDiagnosis:
		return r.diagnosis.Primary
	case FieldProcedures:
		return strings.Join(r.procedures, "; ")
	case FieldClaimAmount:
		return r.claimAmount
	case FieldProvider:
		return r.provider
	}
	return ""
}

type recordJSON struct {
	PatientName      string         `json:"patientName"`
	DateOfBirth      string         `json:"dateOfBirth"`
	MedicaidID       string         `json:"medicaidId"`
	Diagnosis        Diagnosis      `json:"diagnosis"`
	Procedures       []string       `json:"procedures"`
	ClaimAmount      string         `json:"claimAmount"`
	Provider         string         `json:"provider"`
	Confidence       float64        `json:"confidence"`
	ProcessingSource string         `json:"processingSource"`
	FieldSources     map[Field]Tier `json:"fieldSources,omitempty"`
}

// MarshalJSON encodes the record using the wire field names.
func (r ExtractionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		PatientName:      r.patientName,
		DateOfBirth:      r.dateOfBirth,
		MedicaidID:       r.identifier,
		Diagnosis:        r.diagnosis,
		Procedures:       r.procedures,
		ClaimAmount:      r.claimAmount,
		Provider:         r.provider,
		Confidence:       r.confidence,
		ProcessingSource: r.processingSource,
		FieldSources:     r.fieldSources,
	})
}

// UnmarshalJSON decodes a record previously produced by MarshalJSON.
func (r *ExtractionRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewExtractionRecord(RecordInput{
		PatientName:      raw.PatientName,
		DateOfBirth:      raw.DateOfBirth,
		Identifier:       raw.MedicaidID,
		Diagnosis:        raw.Diagnosis,
		Procedures:       raw.Procedures,
		ClaimAmount:      raw.ClaimAmount,
		Provider:         raw.Provider,
		Confidence:       raw.Confidence,
		ProcessingSource: raw.ProcessingSource,
		FieldSources:     raw.FieldSources,
	})
	return nil
}

func orNotFound(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotFound
	}
	return s
}

func clampConfidence(c float64) float64 {
	if c < 0 || c != c {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
