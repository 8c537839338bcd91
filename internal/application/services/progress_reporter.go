package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	"github.com/zatekoja/medicaid-docextract/internal/infrastructure/observability"
)

// ProgressSink receives progress events for a single request. It is called
// synchronously from the pipeline.
type ProgressSink func(event entities.ProgressEvent)

// progressReporter delivers events to the caller's sink and the event bus.
// Percentages never decrease and a failing sink cannot abort the pipeline.
type progressReporter struct {
	ctx       context.Context
	requestID string
	sink      ProgressSink
	bus       providers.ProgressEventBus
	last      int
}

func newProgressReporter(ctx context.Context, requestID string, sink ProgressSink, bus providers.ProgressEventBus) *progressReporter {
	return &progressReporter{
		ctx:       ctx,
		requestID: requestID,
		sink:      sink,
		bus:       bus,
	}
}

func (p *progressReporter) emit(step entities.ProgressStep) {
	if step.Progress() < p.last {
		return
	}
	p.last = step.Progress()

	event := entities.NewProgressEvent(p.requestID, step)
	p.deliver(*event)
	p.publish(event)
}

func (p *progressReporter) deliver(event entities.ProgressEvent) {
	if p.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(p.ctx).Error().
				Str("request_id", p.requestID).
				Str("step", string(event.Step)).
				Err(fmt.Errorf("%v", r)).
				Msg("progress sink panicked")
		}
	}()
	p.sink(event)
}

func (p *progressReporter) publish(event *entities.ProgressEvent) {
	if p.bus == nil {
		return
	}
	for _, channel := range []string{providers.GetExtractionChannel(p.requestID), providers.EventChannelExtractions} {
		if err := p.bus.Publish(p.ctx, channel, event); err != nil {
			observability.LoggerFromContext(p.ctx).Warn().
				Err(err).
				Str("channel", channel).
				Msg("failed to publish progress event")
			return
		}
	}
}
