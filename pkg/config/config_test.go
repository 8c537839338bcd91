package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AnalyzerConfig(t *testing.T) {
	t.Setenv("ANALYZER_URL", "http://analyzer:11434")
	t.Setenv("ANALYZER_MODEL", "llama3.2")
	t.Setenv("ANALYZER_PROBE_TIMEOUT_MS", "1500")
	t.Setenv("ANALYZER_TEMPERATURE", "0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://analyzer:11434", cfg.Analyzer.URL)
	assert.Equal(t, "llama3.2", cfg.Analyzer.Model)
	assert.Equal(t, 1500*time.Millisecond, cfg.Analyzer.ProbeTimeout)
	assert.Equal(t, 0.1, cfg.Analyzer.Temperature)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ANALYZER_URL", "ANALYZER_MODEL", "ANALYZER_PROBE_TIMEOUT_MS", "ANALYZER_TIMEOUT_MS",
		"ANALYZER_TEMPERATURE", "ANALYZER_MAX_TOKENS", "ANALYZER_MAX_PROMPT_CHARS",
		"SERVER_PORT", "UPLOAD_MAX_MB", "REDIS_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Analyzer.URL)
	assert.Equal(t, "llama3.1:latest", cfg.Analyzer.Model)
	assert.Equal(t, 5*time.Second, cfg.Analyzer.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Analyzer.Timeout)
	assert.Equal(t, 0.3, cfg.Analyzer.Temperature)
	assert.Equal(t, 512, cfg.Analyzer.MaxTokens)
	assert.Equal(t, 6000, cfg.Analyzer.MaxPromptChars)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(20<<20), cfg.Documents.UploadMaxBytes())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("UPLOAD_MAX_MB", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_IgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("ANALYZER_MAX_TOKENS", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Analyzer.MaxTokens)
}
