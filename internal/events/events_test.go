package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []EventType
	d.Subscribe(EventUploadStored, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventUploadStored, func(context.Context, Event) error {
		return errors.New("handler down")
	})
	d.Subscribe(EventUploadStored, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUploadStored, 1, nil)))
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserLoggedIn, 1, nil)))

	assert.Equal(t, []EventType{EventUploadStored, EventUploadStored}, got)
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(EventUserRegistered, 3, UserRegisteredPayload{Username: "alice", Tier: "free"})
	b := NewEvent(EventUserRegistered, 3, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(3), a.UserID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestRedisStream_Forward(t *testing.T) {
	_, client := newTestRedis(t)
	stream := NewRedisStream(client, "audioclean:events", 0)

	event := NewEvent(EventUploadStored, 9, UploadStoredPayload{
		UploadID:  4,
		Filename:  "audiofile-1-abc.wav",
		SizeBytes: 128,
	})
	require.NoError(t, stream.Forward(context.Background(), event))

	entries, err := client.XRange(context.Background(), "audioclean:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, event.ID, values["id"])
	assert.Equal(t, "upload_stored", values["type"])
	assert.Equal(t, "9", values["user_id"])

	var payload UploadStoredPayload
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	assert.Equal(t, "audiofile-1-abc.wav", payload.Filename)
	assert.Equal(t, int64(128), payload.SizeBytes)
}

func TestRedisStream_ForwardFailsWhenRedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	err := NewRedisStream(client, "k", 0).Forward(context.Background(), NewEvent(EventUserLoggedIn, 1, nil))
	assert.Error(t, err)
}
