package providers

import "context"

// RecognizedEntities holds the named entities found in a text, in order of
// first appearance.
type RecognizedEntities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
}

// EntityRecognizer finds people and organizations in free text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) (RecognizedEntities, error)
}
