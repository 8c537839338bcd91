package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NotFound is returned for values that are missing or empty after cleaning.
const NotFound = "Not found"

var (
	listMarkerRe = regexp.MustCompile(`^(?:\(?\d{1,2}[.)]|[-*•·▪◦])\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// edge characters stripped from both ends of a value
const edgePunct = ":,;.|-–—_*•·#=\"'`"

// CleanValue normalizes an extracted value of any type into display text.
// nil and unsupported types yield NotFound.
func CleanValue(v any) string {
	switch t := v.(type) {
	case nil:
		return NotFound
	case string:
		return Clean(t)
	case *string:
		if t == nil {
			return NotFound
		}
		return Clean(*t)
	case []string:
		cleaned := CleanList(t)
		if len(cleaned) == 0 {
			return NotFound
		}
		return strings.Join(cleaned, ", ")
	case float64:
		return Clean(strconv.FormatFloat(t, 'f', -1, 64))
	case int, int64, int32:
		return Clean(fmt.Sprint(t))
	case fmt.Stringer:
		return Clean(t.String())
	}
	return NotFound
}

// Clean applies Unicode compatibility normalization, folds line breaks and
// whitespace runs into single spaces, drops a leading list marker and trims
// stray punctuation from the edges. Empty results become NotFound.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	for {
		before := s
		s = listMarkerRe.ReplaceAllString(s, "")
		s = strings.Trim(s, edgePunct+" ")
		s = trimUnbalanced(s)
		if s == before {
			break
		}
	}

	if !hasContent(s) {
		return NotFound
	}
	return s
}

// CleanList cleans each value, drops empty ones and removes case-insensitive
// duplicates while keeping first-occurrence order.
func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		c := Clean(v)
		if c == NotFound {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// IsNotFound reports whether a cleaned value is the NotFound sentinel.
func IsNotFound(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), NotFound)
}

// IsTrivial reports whether a value carries no usable information: empty,
// a single character, or punctuation only.
func IsTrivial(s string) bool {
	c := Clean(s)
	if c == NotFound {
		return true
	}
	return len([]rune(c)) <= 1
}

// trimUnbalanced drops a leading "(" or trailing ")" that has no partner.
func trimUnbalanced(s string) string {
	open := strings.Count(s, "(")
	closed := strings.Count(s, ")")
	if strings.HasSuffix(s, ")") && closed > open {
		s = strings.TrimSpace(strings.TrimSuffix(s, ")"))
	} else if strings.HasPrefix(s, "(") && open > closed {
		s = strings.TrimSpace(strings.TrimPrefix(s, "("))
	}
	return s
}

func hasContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
