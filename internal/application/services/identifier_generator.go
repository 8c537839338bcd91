package services

import (
	"fmt"
	"time"
)

// SyntheticIDPrefix marks identifiers generated in place of a missing one.
const SyntheticIDPrefix = "MD"

// TimeIdentifierGenerator derives placeholder identifiers from a clock: the
// prefix followed by the last nine digits of the Unix time in milliseconds.
type TimeIdentifierGenerator struct {
	Clock func() time.Time
}

// NewTimeIdentifierGenerator returns a generator backed by the wall clock.
func NewTimeIdentifierGenerator() *TimeIdentifierGenerator {
	return &TimeIdentifierGenerator{Clock: time.Now}
}

// Generate returns a new synthetic identifier.
func (g *TimeIdentifierGenerator) Generate() string {
	clock := g.Clock
	if clock == nil {
		clock = time.Now
	}
	digits := fmt.Sprintf("%09d", clock().UnixMilli())
	return SyntheticIDPrefix + digits[len(digits)-9:]
}
