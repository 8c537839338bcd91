package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	apperrors "github.com/zatekoja/medicaid-docextract/pkg/errors"
)

func compileReplySchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analyzer_reply.json", strings.NewReader(analyzerReplySchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analyzer_reply.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// parseReply turns the analyzer's free-form reply into structured fields.
func parseReply(schema *jsonschema.Schema, reply string) (entities.AnalyzerFields, error) {
	var fields entities.AnalyzerFields

	object, ok := firstJSONObject(stripCodeFences(reply))
	if !ok {
		return fields, apperrors.NewParseError("no JSON object in analyzer reply", nil)
	}

	var v any
	if err := json.Unmarshal([]byte(object), &v); err != nil {
		return fields, apperrors.NewParseError("invalid JSON in analyzer reply", err)
	}
	if err := schema.Validate(v); err != nil {
		return fields, apperrors.NewParseError("analyzer reply does not match schema", err)
	}
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return fields, apperrors.NewParseError("failed to decode analyzer reply", err)
	}
	return fields, nil
}

// stripCodeFences removes Markdown code fences around a reply.
func stripCodeFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```JSON")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if i := strings.LastIndex(cleaned, "```"); i >= 0 {
			cleaned = cleaned[:i]
		}
	}
	return strings.TrimSpace(cleaned)
}

// firstJSONObject returns the first balanced, valid JSON object embedded in
// s. Braces inside string literals are ignored.
func firstJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace finds the index of the brace closing the one at open.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
