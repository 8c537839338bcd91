package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnosis is the structured form of a diagnosis. Analyzers and older
// callers sometimes send a bare string; both shapes decode into this type.
type Diagnosis struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
	Codes     []string `json:"codes,omitempty"`
}

// NewDiagnosis returns a diagnosis with only a primary value.
func NewDiagnosis(primary string) Diagnosis {
	return Diagnosis{Primary: primary}
}

// String renders the primary diagnosis.
func (d Diagnosis) String() string {
	return d.Primary
}

// IsZero reports whether nothing was recorded.
func (d Diagnosis) IsZero() bool {
	return strings.TrimSpace(d.Primary) == "" && len(d.Secondary) == 0 && len(d.Codes) == 0
}

// Clone returns a deep copy.
func (d Diagnosis) Clone() Diagnosis {
	out := Diagnosis{Primary: d.Primary}
	if len(d.Secondary) > 0 {
		out.Secondary = append([]string(nil), d.Secondary...)
	}
	if len(d.Codes) > 0 {
		out.Codes = append([]string(nil), d.Codes...)
	}
	return out
}

// UnmarshalJSON accepts a JSON string, null, or an object with primary,
// secondary and codes keys. Secondary and codes may themselves be a single
// string or a list.
func (d *Diagnosis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Diagnosis{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Diagnosis{Primary: s}
		return nil
	case '{':
		var raw struct {
			Primary   json.RawMessage `json:"primary"`
			Secondary json.RawMessage `json:"secondary"`
			Codes     json.RawMessage `json:"codes"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		primary, err := stringOrFirst(raw.Primary)
		if err != nil {
			return fmt.Errorf("diagnosis primary: %w", err)
		}
		secondary, err := stringList(raw.Secondary)
		if err != nil {
			return fmt.Errorf("diagnosis secondary: %w", err)
		}
		codes, err := stringList(raw.Codes)
		if err != nil {
			return fmt.Errorf("diagnosis codes: %w", err)
		}
		*d = Diagnosis{Primary: primary, Secondary: secondary, Codes: codes}
		return nil
	}
	return fmt.Errorf("diagnosis must be a string or an object, got %s", string(data))
}

func stringOrFirst(raw json.RawMessage) (string, error) {
	list, err := stringList(raw)
	if err != nil || len(list) == 0 {
		return "", err
	}
	return list[0], nil
}

// stringList decodes a string, a list of strings, or a number into a list.
func stringList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var values []any
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, err
		}
	} else {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		values = []any{v}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case float64, bool:
			out = append(out, fmt.Sprint(t))
		case nil:
		default:
			return nil, fmt.Errorf("unsupported value %v", v)
		}
	}
	return out, nil
}
