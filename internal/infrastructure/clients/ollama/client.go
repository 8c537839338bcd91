// Package ollama talks to an Ollama-compatible text analyzer.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
	apperrors "github.com/zatekoja/medicaid-docextract/pkg/errors"
)

const (
	defaultModel          = "llama3.1:latest"
	defaultTemperature    = 0.3
	defaultMaxTokens      = 512
	defaultMaxPromptChars = 6000

	// maxReplyBytes caps how much of a reply body is read.
	maxReplyBytes = 4 << 20
)

// Client implements providers.AnalyzerProvider against the Ollama HTTP API.
type Client struct {
	baseURL        string
	model          string
	token          string
	temperature    float64
	maxTokens      int
	maxPromptChars int
	httpClient     *http.Client
	schema         *jsonschema.Schema
}

var _ providers.AnalyzerProvider = (*Client)(nil)

// NewClient creates a new analyzer client.
func NewClient(cfg *config.AnalyzerConfig) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("analyzer url is required")
	}

	schema, err := compileReplySchema()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		model:          cfg.Model,
		token:          cfg.Token,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		maxPromptChars: cfg.MaxPromptChars,
		// Per-call deadlines come from the caller's context.
		httpClient: &http.Client{},
		schema:     schema,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.temperature <= 0 {
		c.temperature = defaultTemperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.maxPromptChars <= 0 {
		c.maxPromptChars = defaultMaxPromptChars
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Probe reports whether the analyzer lists its models. The caller bounds it
// with a deadline.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordAnalyzerMetric(ctx, c.model, opProbe, 0, time.Since(start), err)
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("analyzer", c.baseURL).Msg("analyzer probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	var statusErr error
	if !ok {
		statusErr = fmt.Errorf("status %d", resp.StatusCode)
	}
	recordAnalyzerMetric(ctx, c.model, opProbe, resp.StatusCode, time.Since(start), statusErr)
	return ok
}

// Extract sends one generation request and parses the reply. It does not
// retry; the caller decides what to do with a failed result.
func (c *Client) Extract(ctx context.Context, text string) providers.AnalyzerResult {
	payload := generateRequest{
		Model:  c.model,
		Prompt: buildExtractionPrompt(truncateRunes(text, c.maxPromptChars)),
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Unreachable(apperrors.NewInternalError("failed to encode analyzer request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return providers.Unreachable(apperrors.NewTransportError("failed to build analyzer request", err))
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordAnalyzerMetric(ctx, c.model, opGenerate, 0, time.Since(start), err)
		return providers.Unreachable(apperrors.NewTransportError("analyzer request failed", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		recordAnalyzerMetric(ctx, c.model, opGenerate, resp.StatusCode, time.Since(start), err)
		return providers.Unreachable(apperrors.NewTransportError("failed to read analyzer reply", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("analyzer request failed with status %d", resp.StatusCode)
		recordAnalyzerMetric(ctx, c.model, opGenerate, resp.StatusCode, time.Since(start), statusErr)
		return providers.Unreachable(apperrors.NewTransportError(statusErr.Error(), nil))
	}

	var envelope generateResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		recordAnalyzerMetric(ctx, c.model, opGenerate, resp.StatusCode, time.Since(start), err)
		return providers.Malformed(string(raw), apperrors.NewParseError("invalid analyzer envelope", err))
	}

	fields, err := parseReply(c.schema, envelope.Response)
	if err != nil {
		recordAnalyzerMetric(ctx, c.model, opGenerate, resp.StatusCode, time.Since(start), err)
		return providers.Malformed(envelope.Response, err)
	}

	recordAnalyzerMetric(ctx, c.model, opGenerate, resp.StatusCode, time.Since(start), nil)
	return providers.Accepted(fields, envelope.Response)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
