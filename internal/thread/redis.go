package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each thread as a redis list of JSON-encoded messages.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func threadKey(threadID string) string {
	return "thread:" + threadID
}

func (s *RedisStore) Append(ctx context.Context, threadID string, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, threadKey(threadID), payload).Err(); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, threadID string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	var messages []Message
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) Clear(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, threadKey(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to clear thread: %w", err)
	}
	return nil
}

func (s *RedisStore) Kind() string { return "redis" }
