package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/repository"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type notificationPublisher struct {
	writer MessageWriter
}

// NewNotificationPublisher publishes notifications to a Kafka topic keyed by task id,
// so events for the same task keep their order within a partition.
func NewNotificationPublisher(writer MessageWriter) repository.NotificationPublisher {
	return &notificationPublisher{writer: writer}
}

func (p *notificationPublisher) Name() string {
	return "kafka"
}

func (p *notificationPublisher) Publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatInt(n.TaskID, 10)),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	})
}
