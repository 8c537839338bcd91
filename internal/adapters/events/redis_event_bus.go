package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	redisclient "github.com/zatekoja/medicaid-docextract/internal/infrastructure/clients/redis"
)

// subscriberBuffer is the per-subscriber channel capacity
const subscriberBuffer = 100

// redisTopic fans one Redis subscription out to local subscribers.
type redisTopic struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.ProgressEvent]struct{}
}

// RedisEventBus implements ProgressEventBus using Redis Pub/Sub so progress
// published by one API instance reaches SSE clients connected to another.
type RedisEventBus struct {
	client *redisclient.Client
	prefix string

	mu     sync.RWMutex
	topics map[string]*redisTopic
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

var _ providers.ProgressEventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus. Channel names are
// used as-is on the Redis side.
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return NewRedisEventBusWithPrefix(client, "")
}

// NewRedisEventBusWithPrefix namespaces every Redis channel with prefix,
// letting several deployments share one Redis instance.
func NewRedisEventBusWithPrefix(client *redisclient.Client, prefix string) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		prefix: prefix,
		topics: make(map[string]*redisTopic),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *RedisEventBus) redisChannel(channel string) string {
	return b.prefix + channel
}

// Publish sends an event to every instance subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ProgressEvent) error {
	if event == nil {
		return errors.New("progress event is nil")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, b.redisChannel(channel), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("request_id", event.RequestID).
		Str("step", string(event.Step)).
		Int("progress", event.Progress).
		Msg("published progress event")
	return nil
}

// Subscribe returns a channel of events that stays open until ctx ends,
// Unsubscribe is called or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ProgressEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}

	topic, ok := b.topics[channel]
	if !ok {
		pubsub := b.client.Client().Subscribe(b.ctx, b.redisChannel(channel))
		// Receive blocks until Redis confirms the subscription, so no event
		// published after Subscribe returns can be missed.
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		topic = &redisTopic{
			pubsub:      pubsub,
			subscribers: make(map[chan *entities.ProgressEvent]struct{}),
		}
		b.topics[channel] = topic
		go b.forward(channel, topic)
	}

	events := make(chan *entities.ProgressEvent, subscriberBuffer)
	topic.subscribers[events] = struct{}{}
	count := len(topic.subscribers)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("subscribed to progress channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.detach(channel, events)
	}()

	return events, nil
}

// forward decodes Redis messages for one topic and delivers them without
// blocking on slow subscribers.
func (b *RedisEventBus) forward(channel string, topic *redisTopic) {
	messages := topic.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				b.drop(channel, topic)
				return
			}

			event := new(entities.ProgressEvent)
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("discarding malformed progress event")
				continue
			}

			b.mu.RLock()
			for subscriber := range topic.subscribers {
				select {
				case subscriber <- event:
				default:
					log.Warn().
						Str("channel", channel).
						Str("request_id", event.RequestID).
						Str("step", string(event.Step)).
						Msg("progress subscriber is full; event dropped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// detach removes one subscriber and releases the Redis subscription when it
// was the last one.
func (b *RedisEventBus) detach(channel string, events chan *entities.ProgressEvent) {
	b.mu.Lock()
	topic, ok := b.topics[channel]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, ok := topic.subscribers[events]; !ok {
		b.mu.Unlock()
		return
	}
	delete(topic.subscribers, events)
	close(events)

	var pubsub *redis.PubSub
	if len(topic.subscribers) == 0 {
		delete(b.topics, channel)
		pubsub = topic.pubsub
	}
	b.mu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to close progress subscription")
		}
	}
}

// drop closes every subscriber of topic if it is still registered.
func (b *RedisEventBus) drop(channel string, topic *redisTopic) {
	b.mu.Lock()
	if current, ok := b.topics[channel]; ok && current == topic {
		delete(b.topics, channel)
	}
	for subscriber := range topic.subscribers {
		close(subscriber)
	}
	topic.subscribers = map[chan *entities.ProgressEvent]struct{}{}
	b.mu.Unlock()
}

// Unsubscribe closes every local subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.RLock()
	topic, ok := b.topics[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}

	b.drop(channel, topic)
	if err := topic.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Close stops forwarding and releases every Redis subscription
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	topics := b.topics
	b.topics = make(map[string]*redisTopic)
	b.mu.Unlock()

	b.cancel()

	var errs []error
	for channel, topic := range topics {
		b.drop(channel, topic)
		if err := topic.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscription %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}
