package kafka

import (
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fastygo/boardwatch/internal/config"
)

// NewWriter builds a synchronous writer for notification events.
// It returns nil when no brokers are configured.
func NewWriter(cfg config.KafkaConfig) *kafkago.Writer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
}
