// Package patterns extracts record fields from free text with an ordered,
// declarative table of regular expressions.
package patterns

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/pkg/utils"
)

//go:embed default_patterns.yaml
var defaultPatterns []byte

// SplitLines makes a rule emit one value per line of its capture.
const SplitLines = "lines"

// Rule is one labeled matcher in a field's precedence list.
type Rule struct {
	Label string `yaml:"label"`
	Expr  string `yaml:"expr"`
	Group int    `yaml:"group"`
	Split string `yaml:"split,omitempty"`

	// Vocabulary rules contribute only terms not already covered by an
	// earlier value of the same field.
	Vocabulary bool `yaml:"vocabulary,omitempty"`

	re *regexp.Regexp
}

// FieldRules is the ordered rule list for one field.
type FieldRules struct {
	Field entities.Field `yaml:"field"`
	Rules []Rule         `yaml:"rules"`
}

// Spec is the on-disk form of a pattern table.
type Spec struct {
	Version int          `yaml:"version"`
	Fields  []FieldRules `yaml:"fields"`
}

// Engine runs compiled pattern rules against text. It is safe for
// concurrent use.
type Engine struct {
	fields []entities.Field
	rules  map[entities.Field][]Rule
}

var knownFields = map[entities.Field]bool{
	entities.FieldPatientName:   true,
	entities.FieldDateOfBirth:   true,
	entities.FieldIdentifier:    true,
	entities.FieldDiagnosis:     true,
	entities.FieldDiagnosisCode: true,
	entities.FieldProcedures:    true,
	entities.FieldClaimAmount:   true,
	entities.FieldProvider:      true,
}

// NewDefaultEngine builds an engine from the embedded pattern table.
func NewDefaultEngine() (*Engine, error) {
	return LoadSpec(bytes.NewReader(defaultPatterns))
}

// LoadFile builds an engine from a YAML pattern file.
func LoadFile(path string) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer f.Close()
	return LoadSpec(f)
}

// LoadSpec parses a YAML pattern table and compiles every rule.
func LoadSpec(r io.Reader) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern spec: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse pattern spec: %w", err)
	}
	return NewEngine(spec)
}

// NewEngine compiles a parsed spec.
func NewEngine(spec Spec) (*Engine, error) {
	e := &Engine{rules: make(map[entities.Field][]Rule, len(spec.Fields))}

	for _, fr := range spec.Fields {
		if !knownFields[fr.Field] {
			return nil, fmt.Errorf("unknown field %q in pattern spec", fr.Field)
		}
		if _, dup := e.rules[fr.Field]; dup {
			return nil, fmt.Errorf("field %q declared twice in pattern spec", fr.Field)
		}

		compiled := make([]Rule, 0, len(fr.Rules))
		for _, rule := range fr.Rules {
			re, err := regexp.Compile(rule.Expr)
			if err != nil {
				return nil, fmt.Errorf("field %s rule %s: %w", fr.Field, rule.Label, err)
			}
			if rule.Group < 0 || rule.Group > re.NumSubexp() {
				return nil, fmt.Errorf("field %s rule %s: group %d out of range", fr.Field, rule.Label, rule.Group)
			}
			if rule.Split != "" && rule.Split != SplitLines {
				return nil, fmt.Errorf("field %s rule %s: unknown split %q", fr.Field, rule.Label, rule.Split)
			}
			rule.re = re
			compiled = append(compiled, rule)
		}

		e.fields = append(e.fields, fr.Field)
		e.rules[fr.Field] = compiled
	}

	return e, nil
}

// Fields lists the fields the engine has rules for, in declaration order.
func (e *Engine) Fields() []entities.Field {
	return append([]entities.Field(nil), e.fields...)
}

// Rules returns the rule labels for a field in precedence order.
func (e *Engine) Rules(field entities.Field) []string {
	rules := e.rules[field]
	labels := make([]string, len(rules))
	for i, r := range rules {
		labels[i] = r.Label
	}
	return labels
}

// ExtractFirst returns the first non-trivial match for a field, trying rules
// in precedence order and matches within a rule in text order.
func (e *Engine) ExtractFirst(field entities.Field, text string) (entities.FieldCandidate, bool) {
	for _, rule := range e.rules[field] {
		for _, value := range rule.values(text) {
			if utils.IsTrivial(value) {
				continue
			}
			return candidate(field, rule, value), true
		}
	}
	return entities.FieldCandidate{}, false
}

// ExtractAll returns every non-trivial match for a field across all rules,
// deduplicated case-insensitively in first-occurrence order.
func (e *Engine) ExtractAll(field entities.Field, text string) []entities.FieldCandidate {
	var (
		out  []entities.FieldCandidate
		keys []string
	)
	seen := make(map[string]struct{})

	for _, rule := range e.rules[field] {
		for _, value := range rule.values(text) {
			if utils.IsTrivial(value) {
				continue
			}
			c := candidate(field, rule, value)
			key := strings.ToLower(c.Value)
			if _, ok := seen[key]; ok {
				continue
			}
			if rule.Vocabulary && covered(keys, key) {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
			out = append(out, c)
		}
	}
	return out
}

// covered reports whether term appears as a whole phrase in any of values.
func covered(values []string, term string) bool {
	for _, v := range values {
		if containsPhrase(v, term) {
			return true
		}
	}
	return false
}

func containsPhrase(s, phrase string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// Values is ExtractAll reduced to the cleaned strings.
func (e *Engine) Values(field entities.Field, text string) []string {
	candidates := e.ExtractAll(field, text)
	values := make([]string, len(candidates))
	for i, c := range candidates {
		values[i] = c.Value
	}
	return values
}

func (r Rule) values(text string) []string {
	var out []string
	for _, m := range r.re.FindAllStringSubmatch(text, -1) {
		raw := m[r.Group]
		if r.Split == SplitLines {
			out = append(out, strings.Split(raw, "\n")...)
			continue
		}
		out = append(out, raw)
	}
	return out
}

func candidate(field entities.Field, rule Rule, value string) entities.FieldCandidate {
	return entities.FieldCandidate{
		Field:   field,
		Value:   utils.Clean(value),
		Tier:    entities.TierPattern,
		Pattern: rule.Label,
	}
}
