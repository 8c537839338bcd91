package services

import (
	"strings"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/pkg/utils"
)

// placeholderValues are values analyzers and templates emit instead of data.
var placeholderValues = map[string]struct{}{
	"not specified":          {},
	"not found":              {},
	"not provided":           {},
	"not available":          {},
	"patient name not found": {},
	"ai extraction failed":   {},
	"test patient name":      {},
	"unknown":                {},
	"n/a":                    {},
	"na":                     {},
	"none":                   {},
	"null":                   {},
	"nil":                    {},
	"undefined":              {},
	"string":                 {},
}

var placeholderSuffixes = []string{" not found", " not specified", " not provided"}

// IsPlaceholder reports whether a value is a sentinel rather than real data.
func IsPlaceholder(value string) bool {
	v := strings.ToLower(utils.Clean(value))
	if v == strings.ToLower(utils.NotFound) {
		return true
	}
	if _, ok := placeholderValues[v]; ok {
		return true
	}
	for _, suffix := range placeholderSuffixes {
		if strings.HasSuffix(v, suffix) {
			return true
		}
	}
	return false
}

// Meaningful is the plausibility gate for analyzer output: a structurally
// valid reply only counts when it names an actual patient.
func Meaningful(fields entities.AnalyzerFields) bool {
	return !IsPlaceholder(fields.PatientName)
}

// usable returns the cleaned value when it carries data.
func usable(value string) (string, bool) {
	cleaned := utils.Clean(value)
	if IsPlaceholder(cleaned) {
		return "", false
	}
	return cleaned, true
}

// usableList cleans a list and drops placeholder entries.
func usableList(values []string) []string {
	cleaned := utils.CleanList(values)
	out := cleaned[:0]
	for _, v := range cleaned {
		if !IsPlaceholder(v) {
			out = append(out, v)
		}
	}
	return out
}
