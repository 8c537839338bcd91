package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
}

func TestApplyVaultSecrets_Incomplete(t *testing.T) {
	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true})
	assert.Error(t, err)
}

func TestApplyVaultSecrets_KV2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/docextract", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"ANALYZER_TOKEN":"tok-123","PDF_LICENSE_KEY":"lic","UNRELATED":"x"}}}`))
	}))
	defer server.Close()

	t.Setenv("ANALYZER_TOKEN", "")
	t.Setenv("PDF_LICENSE_KEY", "preset")
	t.Setenv("UNRELATED", "")

	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "docextract",
		KVVersion: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ANALYZER_TOKEN"}, res.Loaded)
	assert.Equal(t, []string{"PDF_LICENSE_KEY"}, res.Skipped)
	assert.Equal(t, "tok-123", os.Getenv("ANALYZER_TOKEN"))
	assert.Equal(t, "preset", os.Getenv("PDF_LICENSE_KEY"))
	assert.Equal(t, "", os.Getenv("UNRELATED"))
}

func TestApplyVaultSecrets_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "t", Mount: "secret", Path: "p", KVVersion: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestBuildVaultURL(t *testing.T) {
	url, err := buildVaultURL("http://vault:8200/", "/secret/", "/app", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/app", url)

	_, err = buildVaultURL("", "secret", "app", 2)
	assert.Error(t, err)
}

func TestStringifyVaultValue(t *testing.T) {
	assert.Equal(t, "true", stringifyVaultValue(true))
	assert.Equal(t, "42", stringifyVaultValue(float64(42)))
	assert.Equal(t, "", stringifyVaultValue(nil))
	assert.Equal(t, `["a"]`, stringifyVaultValue([]any{"a"}))
}
