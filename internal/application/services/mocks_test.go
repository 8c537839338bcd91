package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medicaid-docextract/internal/application/patterns"
	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
)

const claimText = "Patient: John Smith, DOB: 1985-03-15, Medicaid ID: MD123456789, " +
	"Diagnosis: Essential Hypertension, Provider: Maryland General Hospital, Claim: $1,500.00"

// MockAnalyzer is a mock implementation of providers.AnalyzerProvider
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Probe(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockAnalyzer) Extract(ctx context.Context, text string) providers.AnalyzerResult {
	args := m.Called(ctx, text)
	return args.Get(0).(providers.AnalyzerResult)
}

func (m *MockAnalyzer) Model() string {
	return "test-model"
}

// MockRecognizer is a mock implementation of providers.EntityRecognizer
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Recognize(ctx context.Context, text string) (providers.RecognizedEntities, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(providers.RecognizedEntities), args.Error(1)
}

type fixedIDs string

func (f fixedIDs) Generate() string { return string(f) }

type stubDocuments struct {
	text string
	err  error
}

func (s stubDocuments) Supports(name string) bool {
	return name == "claim.txt" || name == "claim.pdf"
}

func (s stubDocuments) ExtractText(ctx context.Context, name string, content []byte) (string, error) {
	return s.text, s.err
}

type recordingBus struct {
	mu     sync.Mutex
	events map[string][]*entities.ProgressEvent
	fail   bool
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: make(map[string][]*entities.ProgressEvent)}
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error {
	if b.fail {
		return errors.New("redis down")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[channel] = append(b.events[channel], event)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[channel])
}

type progressRecorder struct {
	mu     sync.Mutex
	events []entities.ProgressEvent
}

func (r *progressRecorder) sink(event entities.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *progressRecorder) percentages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Progress
	}
	return out
}

func (r *progressRecorder) steps() []entities.ProgressStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.ProgressStep, len(r.events))
	for i, e := range r.events {
		out[i] = e.Step
	}
	return out
}

func newTestEngine(t *testing.T) *patterns.Engine {
	t.Helper()
	engine, err := patterns.NewDefaultEngine()
	require.NoError(t, err)
	return engine
}
