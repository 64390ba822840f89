package publisher

import (
	"context"
	"encoding/base64"
	"time"

	"sjsage522/dealscout/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// FieldKey holds the publish key, the listing's site
	FieldKey = "site"
	// FieldEvent holds the base64 encoded event
	FieldEvent = "b64_event"
)

// RedisPublisher implements Publisher over a single Redis stream
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	stream          string
	streamMaxLength int64
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
		log:             logger.ForPublisher(),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping() error {
	ctx, cancel := context.WithTimeout(p.ctx, 2*time.Second)
	defer cancel()
	return p.client.Ping(ctx).Err()
}

// Stream returns the stream name
func (p *RedisPublisher) Stream() string {
	return p.stream
}

// Publish appends a message to the stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			FieldKey:   key,
			FieldEvent: base64.StdEncoding.EncodeToString(message),
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = p.streamMaxLength
		args.Approx = true
	}

	if err := p.client.XAdd(p.ctx, args).Err(); err != nil {
		p.log.Warn().Err(err).Str("stream", p.stream).Msg("Failed to publish")
		return err
	}
	return nil
}

// TrimStreams trims the stream exactly to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	return p.client.XTrimMaxLen(p.ctx, p.stream, p.streamMaxLength).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
