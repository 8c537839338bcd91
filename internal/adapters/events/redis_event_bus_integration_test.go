//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medicaid-docextract/internal/domain/entities"
	"github.com/zatekoja/medicaid-docextract/internal/domain/providers"
	redisclient "github.com/zatekoja/medicaid-docextract/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medicaid-docextract/pkg/config"
	"github.com/zatekoja/medicaid-docextract/pkg/retry"
)

func newTestRedisClient(t *testing.T) *redisclient.Client {
	t.Helper()

	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}
	cfg := &config.RedisConfig{
		Enabled: true,
		Host:    os.Getenv("TEST_REDIS_HOST"),
		Port:    port,
	}

	client, err := redisclient.NewClient(context.Background(), cfg, retry.Config{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, BackoffFactor: 2})
	require.NoError(t, err)
	return client
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := NewRedisEventBusWithPrefix(redisClient, "test:")
	defer eventBus.Close()

	channel := providers.GetExtractionChannel("req-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewProgressEvent("req-redis-1", entities.ProgressStepPatternExtraction)
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received1 := waitForEvent(t, sub1)
	received2 := waitForEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.ProgressStepPatternExtraction, received1.Step)
	assert.Equal(t, 60, received1.Progress)
}
