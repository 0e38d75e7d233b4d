package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID    string
	Count int
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[testPayload](DefaultConfig())

	require.NoError(t, queue.Publish(ctx, &testPayload{ID: "p1", Count: 1}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", message.T().ID)
	assert.Equal(t, 0, queue.Size())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(errors.New("late")))
}

func TestQueue_Nack(t *testing.T) {
	var testCases = []struct {
		description string
		maxRetries  int
		deliveries  int
		expectDead  int
	}{
		{description: "redelivered within budget", maxRetries: 2, deliveries: 2},
		{description: "dead lettered once exhausted", maxRetries: 1, deliveries: 2, expectDead: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := DefaultConfig()
			config.MaxRetries = testCase.maxRetries
			config.RetryDelay = time.Millisecond
			queue := NewQueue[testPayload](config)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			require.NoError(t, queue.Publish(ctx, &testPayload{ID: "p1"}))
			for i := 0; i < testCase.deliveries; i++ {
				message, err := queue.Consume(ctx)
				require.NoError(t, err)
				assert.Equal(t, "p1", message.T().ID)
				require.NoError(t, message.Nack(errors.New("failed")))
			}
			if testCase.expectDead == 0 {
				message, err := queue.Consume(ctx)
				require.NoError(t, err)
				assert.NoError(t, message.Ack())
			}
			dead := queue.DeadLetters()
			require.Len(t, dead, testCase.expectDead)
			if testCase.expectDead > 0 {
				assert.Equal(t, "failed", dead[0].Error)
				assert.Equal(t, testCase.deliveries, dead[0].Attempts)
			}
		})
	}
}

func TestQueue_Close(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	queue.Close()
	assert.True(t, errors.Is(queue.Publish(context.Background(), &testPayload{}), ErrClosed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
