package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
)

func waitForEvent(t *testing.T, ch <-chan *entities.ProgressEvent) *entities.ProgressEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func waitClosed(t *testing.T, ch <-chan *entities.ProgressEvent) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestMemoryEventBus_Fanout(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetExtractionChannel("req-1")
	sub1, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	event := entities.NewProgressEvent("req-1", entities.ProgressStepAnalyzingText)
	require.NoError(t, bus.Publish(context.Background(), channel, event))

	assert.Equal(t, event.ID, waitForEvent(t, sub1).ID)
	assert.Equal(t, event.ID, waitForEvent(t, sub2).ID)
}

func TestMemoryEventBus_ChannelIsolation(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), providers.GetExtractionChannel("a"))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), providers.GetExtractionChannel("b"),
		entities.NewProgressEvent("b", entities.ProgressStepComplete)))

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_ContextCancelClosesSubscriber(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, providers.EventChannelExtractions)
	require.NoError(t, err)

	cancel()
	waitClosed(t, sub)
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus()

	sub, err := bus.Subscribe(context.Background(), providers.EventChannelExtractions)
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	waitClosed(t, sub)

	assert.ErrorIs(t, bus.Publish(context.Background(), providers.EventChannelExtractions,
		entities.NewProgressEvent("x", entities.ProgressStepComplete)), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Close())
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), "extraction:req")
	require.NoError(t, err)

	require.NoError(t, bus.Unsubscribe(context.Background(), "extraction:req"))
	waitClosed(t, sub)
}
