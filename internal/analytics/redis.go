package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"storefront/internal/models"
)

// RedisSink publishes events as JSON on a redis channel for downstream
// consumers.
type RedisSink struct {
	redis   *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	return &RedisSink{redis: rdb, channel: channel}
}

func (s *RedisSink) Track(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := s.redis.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event on %s: %w", s.channel, err)
	}
	return nil
}
