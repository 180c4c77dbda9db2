package jobstore

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps each job as a hash under "job:<id>" with a retention TTL,
// matching the layout the status API reads.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an already constructed client. The client is injected
// so tests and the binary wire their own connection.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

func (s *RedisStore) Create(ctx context.Context, rec Record) error {
	key := jobKey(rec.JobID)
	if err := s.client.HSet(ctx, key, fieldsToMap(createFields(rec))).Err(); err != nil {
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis EXPIRE %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, jobID string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	key := jobKey(jobID)
	if err := s.client.HSet(ctx, key, fieldsToMap(fields)).Err(); err != nil {
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (Record, error) {
	key := jobKey(jobID)
	data, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis HGETALL %s: %w", key, err)
	}
	if len(data) == 0 {
		return Record{}, ErrNotFound
	}
	return recordFromFields(jobID, data), nil
}

func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	key := jobKey(jobID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

// fieldsToMap widens Fields for the go-redis HSet variadic mapping.
func fieldsToMap(fields Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
