package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/boardwatch/domain"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redislib.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestNotificationPublisherPublishesJSON(t *testing.T) {
	fake := &fakePublisher{}
	pub := NewNotificationPublisher(fake, "")

	n := domain.Notification{
		ID:      "n-1",
		Type:    domain.NotificationOverdue,
		TaskID:  42,
		Title:   "Renew certificate",
		DueDate: "2024-01-01T00:00:00Z",
		FiredAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := pub.Publish(context.Background(), n); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if fake.channel != "kanboard.events" {
		t.Fatalf("expected default channel, got %s", fake.channel)
	}

	var decoded domain.Notification
	if err := json.Unmarshal(fake.payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.TaskID != 42 || decoded.Type != domain.NotificationOverdue {
		t.Fatalf("unexpected payload %+v", decoded)
	}
	if pub.Name() != "redis" {
		t.Fatalf("unexpected name %s", pub.Name())
	}
}

func TestNotificationPublisherReturnsRedisError(t *testing.T) {
	boom := errors.New("connection refused")
	pub := NewNotificationPublisher(&fakePublisher{err: boom}, "events")
	if err := pub.Publish(context.Background(), domain.Notification{TaskID: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected redis error, got %v", err)
	}
}
