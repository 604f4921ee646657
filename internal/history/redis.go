package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "gamemaster:history:"

// RedisStore keeps each chat's history in a redis list.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore wraps client. Lists expire ttl after their last write; a zero
// ttl keeps them forever.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the redis key holding chatID's history.
func Key(chatID string) string {
	return redisKeyPrefix + chatID
}

// Get reads and decodes the chat's list. Entries that fail to decode are skipped.
func (s *RedisStore) Get(ctx context.Context, chatID string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, Key(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history for chat %s: %w", chatID, err)
	}

	msgs := make([]Message, 0, len(raw))
	for _, entry := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			s.logger.Warn("skipping malformed history entry",
				zap.String("chat_id", chatID),
				zap.Error(err),
			)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Append pushes msgs, trims the list to limit and refreshes its expiry in a
// single transaction.
func (s *RedisStore) Append(ctx context.Context, chatID string, limit int, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode history message: %w", err)
		}
		values = append(values, encoded)
	}

	key := Key(chatID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if limit > 0 {
			pipe.LTrim(ctx, key, int64(-limit), -1)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history for chat %s: %w", chatID, err)
	}
	return nil
}

// Clear deletes the chat's list.
func (s *RedisStore) Clear(ctx context.Context, chatID string) error {
	if err := s.client.Del(ctx, Key(chatID)).Err(); err != nil {
		return fmt.Errorf("clear history for chat %s: %w", chatID, err)
	}
	return nil
}
