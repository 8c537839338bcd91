package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const claim = "Patient: John Smith, DOB: 1985-03-15, Medicaid ID: MD123456789, " +
	"Diagnosis: Essential Hypertension, Provider: Maryland General Hospital, Claim: $1,500.00"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VAULT_ENABLED", "false")
	t.Setenv("EXTRACTION_NER_ENABLED", "false")
	t.Setenv("EXTRACTION_PATTERNS_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestExtract_TextJSON(t *testing.T) {
	setupEnv(t)

	stdout, _, err := execute(t, "--text", claim, "--offline")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "fallback", result["processingMethod"])
	assert.Equal(t, "analyzer_disabled", result["fallbackReason"])

	data := result["extractedData"].(map[string]any)
	assert.Equal(t, "John Smith", data["patientName"])
	assert.Equal(t, "MD123456789", data["medicaidId"])
	assert.Equal(t, "$1,500.00", data["claimAmount"])
}

func TestExtract_FileYAML(t *testing.T) {
	setupEnv(t)

	path := filepath.Join(t.TempDir(), "claim.txt")
	require.NoError(t, os.WriteFile(path, []byte(claim), 0o600))

	stdout, stderr, err := execute(t, "--file", path, "--offline", "--format", "yaml", "--progress")
	require.NoError(t, err)

	var result struct {
		DocumentName  string `yaml:"documentName"`
		ExtractedData struct {
			PatientName string `yaml:"patientName"`
			DateOfBirth string `yaml:"dateOfBirth"`
		} `yaml:"extractedData"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "claim.txt", result.DocumentName)
	assert.Equal(t, "John Smith", result.ExtractedData.PatientName)
	assert.Equal(t, "1985-03-15", result.ExtractedData.DateOfBirth)

	assert.Contains(t, stderr, "reading_file")
	assert.Contains(t, stderr, "[100%] complete")
}

func TestExtract_InputErrors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "no input", args: []string{"--offline"}, errContains: "--text or --file"},
		{name: "bad format", args: []string{"--text", claim, "--format", "xml"}, errContains: "unsupported format"},
		{name: "both inputs", args: []string{"--text", claim, "--file", "x.txt"}, errContains: "none of the others"},
		{name: "unsupported file", args: []string{"--file", "notes.docx", "--offline"}, errContains: "failed to read document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
