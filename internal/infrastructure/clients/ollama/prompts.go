package ollama

import (
	"fmt"
	"strings"
)

const extractionInstructions = `You extract structured data from healthcare claim documents for Medicaid processing. Return ONLY valid JSON with exactly this schema:
{
  "patientName": string,
  "dateOfBirth": string (as written in the document),
  "medicaidId": string,
  "diagnosis": {"primary": string, "secondary": string[], "codes": string[] (ICD-10)},
  "procedures": string[] (include CPT codes in parentheses when present),
  "claimAmount": string (with currency symbol),
  "provider": string (facility or physician name)
}
Use "Not found" for any value that does not appear in the document. Do not invent values. Do not add commentary.`

// analyzerReplySchema accepts the requested shape and the common ways models
// deviate from it. Anything else is treated as a malformed reply.
const analyzerReplySchema = `{
  "type": "object",
  "properties": {
    "patientName": {"type": ["string", "number", "null"]},
    "dateOfBirth": {"type": ["string", "number", "null"]},
    "medicaidId": {"type": ["string", "number", "null"]},
    "claimAmount": {"type": ["string", "number", "null"]},
    "provider": {"type": ["string", "object", "null"]},
    "diagnosis": {"type": ["string", "object", "null"]},
    "procedures": {
      "type": ["string", "array", "null"],
      "items": {"type": ["string", "object", "number"]}
    }
  }
}`

func buildExtractionPrompt(document string) string {
	return fmt.Sprintf("%s\n\nDocument:\n\"\"\"\n%s\n\"\"\"\n\nJSON:", extractionInstructions, strings.TrimSpace(document))
}

// truncateRunes keeps at most max runes of s.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
