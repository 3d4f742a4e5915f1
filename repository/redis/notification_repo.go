package redis

import (
	"context"
	"encoding/json"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/repository"
)

// Publisher is the subset of the Redis client used to fan events out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd
}

type notificationPublisher struct {
	client  Publisher
	channel string
}

// NewNotificationPublisher publishes notifications on a Redis pub/sub channel.
func NewNotificationPublisher(client Publisher, channel string) repository.NotificationPublisher {
	if channel == "" {
		channel = "kanboard.events"
	}
	return &notificationPublisher{
		client:  client,
		channel: channel,
	}
}

func (p *notificationPublisher) Name() string {
	return "redis"
}

func (p *notificationPublisher) Publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
