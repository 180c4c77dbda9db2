package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// queueKey is the Redis list holding pending tasks, oldest at the tail.
const queueKey = "jobs:queue"

// blockInterval bounds each BRPOP wait so shutdown is observed promptly.
const blockInterval = time.Second

// RedisQueue is the durable Queue variant: LPUSH to enqueue, BRPOP to
// dequeue, JSON-encoded tasks.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue wraps an already constructed client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	if err := q.client.LPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s: %w", queueKey, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}

		res, err := q.client.BRPop(ctx, blockInterval, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue // timed out empty, poll again
		}
		if err != nil {
			return Task{}, fmt.Errorf("redis BRPOP %s: %w", queueKey, err)
		}

		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return Task{}, fmt.Errorf("failed to decode task payload: %w", err)
		}
		return task, nil
	}
}
