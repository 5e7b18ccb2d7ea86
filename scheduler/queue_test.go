package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := NewRedisQueue(rdb, "")
	q.poll = 50 * time.Millisecond
	return q
}

func TestQueues_FIFO(t *testing.T) {
	queues := map[string]func(t *testing.T) Queue{
		"memory": func(t *testing.T) Queue { return NewMemoryQueue(8) },
		"redis":  func(t *testing.T) Queue { return newRedisQueue(t) },
	}

	for name, mk := range queues {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := mk(t)

			for _, id := range []string{"1", "2", "3"} {
				require.NoError(t, q.Enqueue(ctx, Job{ID: id, Name: "generate_report", Payload: json.RawMessage(`{"from":null}`)}))
			}
			for _, want := range []string{"1", "2", "3"} {
				job, err := q.Dequeue(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, job.ID)
				assert.Equal(t, "generate_report", job.Name)
				assert.JSONEq(t, `{"from":null}`, string(job.Payload))
			}
		})
	}
}

func TestQueues_DequeueHonoursContext(t *testing.T) {
	queues := map[string]func(t *testing.T) Queue{
		"memory": func(t *testing.T) Queue { return NewMemoryQueue(1) },
		"redis":  func(t *testing.T) Queue { return newRedisQueue(t) },
	}

	for name, mk := range queues {
		t.Run(name, func(t *testing.T) {
			q := mk(t)
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
			defer cancel()

			_, err := q.Dequeue(ctx)
			assert.Error(t, err)
			assert.Error(t, ctx.Err())
		})
	}
}

func TestMemoryQueue_Full(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "1"}))
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "2"}), ErrQueueFull)
	assert.Equal(t, 1, q.Len())
}
