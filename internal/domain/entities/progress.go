package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ProgressStep names a stage of the extraction pipeline.
type ProgressStep string

const (
	ProgressStepInitializing      ProgressStep = "initializing"
	ProgressStepReadingFile       ProgressStep = "reading_file"
	ProgressStepProbingAnalyzer   ProgressStep = "probing_analyzer"
	ProgressStepAnalyzingText     ProgressStep = "analyzing_text"
	ProgressStepPatternExtraction ProgressStep = "pattern_extraction"
	ProgressStepNormalizing       ProgressStep = "normalizing"
	ProgressStepValidating        ProgressStep = "validating"
	ProgressStepComplete          ProgressStep = "complete"
)

// stepProgress is the percentage reported when a step starts.
var stepProgress = map[ProgressStep]int{
	ProgressStepInitializing:      10,
	ProgressStepReadingFile:       20,
	ProgressStepProbingAnalyzer:   30,
	ProgressStepAnalyzingText:     50,
	ProgressStepPatternExtraction: 60,
	ProgressStepNormalizing:       75,
	ProgressStepValidating:        90,
	ProgressStepComplete:          100,
}

// Progress returns the percentage associated with the step.
func (s ProgressStep) Progress() int {
	return stepProgress[s]
}

// ProgressEvent is emitted as a request moves through the pipeline.
type ProgressEvent struct {
	ID        string       `json:"id"`
	RequestID string       `json:"request_id"`
	Step      ProgressStep `json:"step"`
	Progress  int          `json:"progress"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewProgressEvent creates an event for a step.
func NewProgressEvent(requestID string, step ProgressStep) *ProgressEvent {
	return &ProgressEvent{
		ID:        newEventID(),
		RequestID: requestID,
		Step:      step,
		Progress:  step.Progress(),
		Timestamp: time.Now(),
	}
}

func newEventID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().Format("20060102150405.000000")
	}
	return time.Now().Format("20060102150405") + "-" + hex.EncodeToString(buf)
}
