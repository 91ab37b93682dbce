// ABOUTME: Redis-backed transcript store for cross-process conversations
// ABOUTME: One Redis list per conversation, messages appended as JSON
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coverly/advisor/internal/models"
)

const (
	transcriptKeyPrefix  = "coverly:transcript:"
	defaultTranscriptTTL = 30 * 24 * time.Hour
)

// RedisTranscriptStore persists transcripts in Redis lists so multiple
// advisor processes can serve the same conversation.
type RedisTranscriptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTranscriptStore connects to Redis using a URL of the form
// redis://host:port/db and verifies the connection.
func NewRedisTranscriptStore(ctx context.Context, url string) (*RedisTranscriptStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}
	return &RedisTranscriptStore{client: client, ttl: defaultTranscriptTTL}, nil
}

// Close releases the underlying Redis connection.
func (s *RedisTranscriptStore) Close() error {
	return s.client.Close()
}

func transcriptKey(conversationID string) string {
	return transcriptKeyPrefix + conversationID
}

// GetTranscript loads the full transcript for a conversation, oldest first.
func (s *RedisTranscriptStore) GetTranscript(ctx context.Context, conversationID string) (models.Transcript, error) {
	raw, err := s.client.LRange(ctx, transcriptKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: load transcript: %w", err)
	}
	transcript := make(models.Transcript, 0, len(raw))
	for _, item := range raw {
		var msg models.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("storage: decode transcript message: %w", err)
		}
		transcript = append(transcript, msg)
	}
	return transcript, nil
}

// AppendMessages pushes messages onto the conversation list and refreshes
// its TTL.
func (s *RedisTranscriptStore) AppendMessages(ctx context.Context, conversationID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	key := transcriptKey(conversationID)
	values := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("storage: encode transcript message: %w", err)
		}
		values = append(values, data)
	}
	if err := s.client.RPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("storage: append transcript: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("storage: refresh transcript ttl: %w", err)
	}
	return nil
}
