package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends events to a Redis stream for out-of-process consumers
// such as audio processing workers.
type RedisStream struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisStream returns a forwarder; maxLen <= 0 leaves the stream untrimmed.
func NewRedisStream(client *redis.Client, key string, maxLen int64) *RedisStream {
	return &RedisStream{client: client, key: key, maxLen: maxLen}
}

// Forward XADDs the event. Entry fields are flat strings; the payload is JSON.
func (s *RedisStream) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Type, err)
	}

	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]interface{}{
			"id":        event.ID,
			"type":      string(event.Type),
			"user_id":   strconv.FormatInt(event.UserID, 10),
			"timestamp": event.Timestamp.Format(time.RFC3339Nano),
			"payload":   string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}
