package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringerValue struct{ v string }

func (s stringerValue) String() string { return s.v }

func TestClean(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses whitespace", " John  Doe \n", "John Doe"},
		{"folds line breaks", "Maryland General\r\nHospital", "Maryland General Hospital"},
		{"trims label punctuation", ": Jane Smith,", "Jane Smith"},
		{"drops numbered marker", "1. Office visit", "Office visit"},
		{"drops bullet marker", "• Blood panel", "Blood panel"},
		{"drops dash marker", "- Chest X-ray", "Chest X-ray"},
		{"keeps balanced parenthesis", "Office Visit (99213)", "Office Visit (99213)"},
		{"drops unbalanced parenthesis", "Office Visit 99213)", "Office Visit 99213"},
		{"keeps money decimals", "$1,500.00", "$1,500.00"},
		{"keeps iso date", "1985-03-15", "1985-03-15"},
		{"normalizes compatibility forms", "Ｊｏｈｎ Ｓｍｉｔｈ", "John Smith"},
		{"empty", "", NotFound},
		{"whitespace only", " \t\n ", NotFound},
		{"punctuation only", " :,; ", NotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Clean(tc.input))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{" John  Doe \n", "1. Office visit (99213)", ": $1,500.00 ;", "", "Dr. Jane Smith"}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, NotFound, CleanValue(nil))
	assert.Equal(t, "John Doe", CleanValue(" John  Doe \n"))
	assert.Equal(t, "1500.5", CleanValue(1500.5))
	assert.Equal(t, "42", CleanValue(42))
	assert.Equal(t, "Hypertension", CleanValue(stringerValue{" Hypertension "}))
	assert.Equal(t, "A, b", CleanValue([]string{"A", " ", "b", "B"}))
	assert.Equal(t, NotFound, CleanValue(map[string]string{"a": "b"}))

	var nilString *string
	assert.Equal(t, NotFound, CleanValue(nilString))
}

func TestCleanList(t *testing.T) {
	got := CleanList([]string{"1. Office Visit", "office visit", "", "- Blood Panel", " :: "})
	assert.Equal(t, []string{"Office Visit", "Blood Panel"}, got)
	assert.Empty(t, CleanList(nil))
}

func TestIsTrivial(t *testing.T) {
	assert.True(t, IsTrivial(""))
	assert.True(t, IsTrivial("x"))
	assert.True(t, IsTrivial(" , "))
	assert.False(t, IsTrivial("Jo"))
	assert.True(t, IsNotFound(" not found "))
}
