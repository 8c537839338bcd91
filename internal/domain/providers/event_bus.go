package providers

import (
	"context"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
)

// ProgressEventBus publishes and subscribes to extraction progress events.
type ProgressEventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the bus and all subscriptions
	Close() error
}

const (
	// EventChannelExtractions receives every progress event.
	EventChannelExtractions = "extraction:updates"

	// EventChannelExtractionPrefix prefixes per-request channels.
	EventChannelExtractionPrefix = "extraction:"
)

// GetExtractionChannel returns the channel for a single request.
func GetExtractionChannel(requestID string) string {
	return EventChannelExtractionPrefix + requestID
}
