package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/water"
	"github.com/sipca/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetVerdict caches a verdict under the hash of its scaled feature vector.
// Identical measurements classify identically, so the cache never goes stale
// while the artifacts are fixed.
func (c *Client) SetVerdict(ctx context.Context, vectorHash string, verdict water.Verdict, ttl time.Duration) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("verdict:%s", vectorHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set verdict cache: %w", err)
	}

	logger.Debug("Verdict cached", zap.String("vector_hash", vectorHash))
	return nil
}

func (c *Client) GetVerdict(ctx context.Context, vectorHash string) (*water.Verdict, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("verdict:%s", vectorHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get verdict cache: %w", err)
	}

	var verdict water.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}

	logger.Debug("Verdict cache hit", zap.String("vector_hash", vectorHash))
	return &verdict, true, nil
}

// SetChatReply caches an assistant reply under the hash of the prompt.
func (c *Client) SetChatReply(ctx context.Context, promptHash, reply string, ttl time.Duration) error {
	err := c.client.Set(ctx, fmt.Sprintf("chat:%s", promptHash), reply, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set chat cache: %w", err)
	}

	logger.Debug("Chat reply cached", zap.String("prompt_hash", promptHash))
	return nil
}

func (c *Client) GetChatReply(ctx context.Context, promptHash string) (string, bool, error) {
	reply, err := c.client.Get(ctx, fmt.Sprintf("chat:%s", promptHash)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get chat cache: %w", err)
	}

	logger.Debug("Chat cache hit", zap.String("prompt_hash", promptHash))
	return reply, true, nil
}
