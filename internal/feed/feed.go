// Package feed appends completed-session facts for dashboard aggregation.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashureev/interview-labs/internal/domain"
)

// DefaultStream is the Redis stream completed-session facts are appended to.
const DefaultStream = "interview:sessions:completed"

// Publisher appends completed-session facts.
type Publisher interface {
	Publish(ctx context.Context, fact domain.CompletedFact) error
	Close() error
}

// NoopPublisher discards facts. Used when no Redis address is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, domain.CompletedFact) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }

// RedisPublisher appends facts to a Redis stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// RedisConfig holds the feed connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}

	slog.Info("Completed-session feed connected", "addr", cfg.Addr, "stream", stream)
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}, nil
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, fact domain.CompletedFact) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: factFields(fact),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func factFields(fact domain.CompletedFact) map[string]any {
	return map[string]any{
		"session_id":       fact.SessionID,
		"user_id":          fact.UserID,
		"overall_score":    strconv.Itoa(fact.OverallScore),
		"duration_seconds": strconv.Itoa(fact.DurationSeconds),
		"modality":         string(fact.Modality),
		"completed_at":     fact.CompletedAt.UTC().Format(time.RFC3339),
	}
}
