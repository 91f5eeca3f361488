// Package sinks delivers committed events to external systems.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"provenance/internal/events"
)

// DefaultStreamMaxLen caps the Redis stream; older entries are trimmed approximately.
const DefaultStreamMaxLen = 100_000

// RedisStream appends every event to a Redis stream. The event sequence number is
// stored as a field so consumers can drop replays.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

type RedisStreamOption func(*RedisStream)

func WithMaxLen(n int64) RedisStreamOption {
	return func(s *RedisStream) { s.maxLen = n }
}

func NewRedisStream(client *redis.Client, stream string, opts ...RedisStreamOption) *RedisStream {
	s := &RedisStream{client: client, stream: stream, maxLen: DefaultStreamMaxLen}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStream) Name() string { return "redis" }

func (s *RedisStream) Deliver(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"seq":     strconv.FormatUint(ev.Seq, 10),
			"kind":    string(ev.Kind),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
