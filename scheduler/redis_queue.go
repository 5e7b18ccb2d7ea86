package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultQueueKey = "library:jobs"

// RedisQueue is a FIFO list: producers LPUSH, workers BRPOP.
type RedisQueue struct {
	rdb  *redis.Client
	key  string
	poll time.Duration
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{rdb: rdb, key: key, poll: time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, b).Err()
}

// Dequeue polls with a short BRPOP timeout so a cancelled ctx is noticed
// promptly. Delivery is at most once: a job popped by a worker that dies
// mid-run is gone, and the next scheduled fire replaces it.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.rdb.BRPop(ctx, q.poll, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Job{}, err
		}
		// res = [key, value]
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return Job{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
