// Package nlp recognizes people and organizations in free text.
package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
)

// DefaultMaxChars bounds the text handed to the tagger.
const DefaultMaxChars = 20000

var orgPattern = regexp.MustCompile(`\b((?:[A-Z][A-Za-z'&.-]*\s+){0,5}?(?:Hospital|Clinic|Medical Center|Medical Group|Health System|Health|Healthcare|Associates|Physicians|Pharmacy|Laboratories|Labs|Center))\b`)

// label words that prose sometimes tags as part of a PERSON span
var personStopWords = map[string]bool{
	"patient": true, "name": true, "provider": true, "dob": true, "diagnosis": true,
	"member": true, "medicaid": true, "claim": true, "id": true, "dr": true, "dr.": true,
}

// ProseRecognizer tags PERSON entities with prose and organizations with a
// suffix heuristic.
type ProseRecognizer struct {
	maxChars int
}

var _ providers.EntityRecognizer = (*ProseRecognizer)(nil)

// NewProseRecognizer creates a recognizer. maxChars <= 0 uses DefaultMaxChars.
func NewProseRecognizer(maxChars int) *ProseRecognizer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &ProseRecognizer{maxChars: maxChars}
}

// Recognize returns de-duplicated people and organizations in document order.
func (r *ProseRecognizer) Recognize(ctx context.Context, text string) (providers.RecognizedEntities, error) {
	var out providers.RecognizedEntities
	if strings.TrimSpace(text) == "" {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	if runes := []rune(text); len(runes) > r.maxChars {
		text = string(runes[:r.maxChars])
	}

	out.Organizations = FindOrganizations(text)

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
	)
	if err != nil {
		return out, fmt.Errorf("failed to tag document: %w", err)
	}

	seen := make(map[string]bool)
	for _, ent := range doc.Entities() {
		if ent.Label != "PERSON" {
			continue
		}
		name := cleanPerson(ent.Text)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out.People = append(out.People, name)
	}

	return out, nil
}

// FindOrganizations returns capitalized phrases ending in an organization suffix.
func FindOrganizations(text string) []string {
	var orgs []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		for _, m := range orgPattern.FindAllStringSubmatch(line, -1) {
			org := strings.TrimSpace(m[1])
			if strings.Count(org, " ") == 0 {
				continue
			}
			key := strings.ToLower(org)
			if seen[key] {
				continue
			}
			seen[key] = true
			orgs = append(orgs, org)
		}
	}
	return orgs
}

// cleanPerson drops label words and requires at least two capitalized tokens.
func cleanPerson(span string) string {
	var tokens []string
	for _, tok := range strings.Fields(span) {
		tok = strings.Trim(tok, ",;:()")
		if tok == "" || personStopWords[strings.ToLower(tok)] {
			continue
		}
		first := []rune(tok)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) < 2 {
		return ""
	}
	return strings.Join(tokens, " ")
}
