package repository

import (
	"context"

	"github.com/fastygo/boardwatch/domain"
)

// NotificationPublisher delivers notifications to one outbound channel.
type NotificationPublisher interface {
	Name() string
	Publish(ctx context.Context, n domain.Notification) error
}
