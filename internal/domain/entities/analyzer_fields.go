package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnalyzerFields is the loosely typed structured reply of an external
// analyzer. Scalars of any JSON type are coerced to strings.
type AnalyzerFields struct {
	PatientName string    `json:"patientName"`
	DateOfBirth string    `json:"dateOfBirth"`
	MedicaidID  string    `json:"medicaidId"`
	Diagnosis   Diagnosis `json:"diagnosis"`
	Procedures  []string  `json:"procedures"`
	ClaimAmount string    `json:"claimAmount"`
	Provider    string    `json:"provider"`
}

// Value returns the raw analyzer value for a single-valued field.
func (f AnalyzerFields) Value(field Field) string {
	switch field {
	case FieldPatientName:
		return f.PatientName
	case FieldDateOfBirth:
		return f.DateOfBirth
	case FieldIdentifier:
		return f.MedicaidID
	case FieldDiagnosis:
		return f.Diagnosis.Primary
	case FieldClaimAmount:
		return f.ClaimAmount
	case FieldProvider:
		return f.Provider
	case FieldProcedures:
		return strings.Join(f.Procedures, "; ")
	}
	return ""
}

// UnmarshalJSON tolerates numbers, booleans and nested shapes where the
// analyzer did not follow the requested schema exactly.
func (f *AnalyzerFields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out AnalyzerFields
	out.PatientName = scalarString(raw["patientName"])
	out.DateOfBirth = scalarString(raw["dateOfBirth"])
	out.MedicaidID = scalarString(raw["medicaidId"])
	out.ClaimAmount = scalarString(raw["claimAmount"])
	out.Provider = scalarString(raw["provider"])

	if d, ok := raw["diagnosis"]; ok {
		if err := json.Unmarshal(d, &out.Diagnosis); err != nil {
			// Unexpected shapes fall back to their textual form.
			out.Diagnosis = Diagnosis{Primary: scalarString(d)}
		}
	}

	procedures, err := procedureList(raw["procedures"])
	if err != nil {
		return fmt.Errorf("procedures: %w", err)
	}
	out.Procedures = procedures

	*f = out
	return nil
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if b, err := json.Marshal(item); err == nil {
				if s := scalarString(b); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		for _, key := range []string{"name", "value", "primary"} {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

// procedureList accepts a string, a list of strings, or a list of objects
// carrying a name.
func procedureList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '[' {
		if s := scalarString(raw); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := scalarString(item); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
