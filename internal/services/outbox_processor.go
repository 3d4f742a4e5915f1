package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/infrastructure/buffer"
	"github.com/fastygo/boardwatch/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxProcessor re-publishes buffered notifications to the sink that rejected them.
type OutboxProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	sinks   map[string]repository.NotificationPublisher
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewOutboxProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ProcessorConfig,
	sinks ...repository.NotificationPublisher,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byName := make(map[string]repository.NotificationPublisher, len(sinks))
	for _, sink := range sinks {
		byName[sink.Name()] = sink
	}

	op := &OutboxProcessor{
		store:   store,
		monitor: monitor,
		sinks:   byName,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started", zap.Duration("interval", op.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) error {
	if op == nil || op.cron == nil {
		return nil
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	op.logger.Info("outbox processor stopped")
	return nil
}

// Buffer persists a notification for a later attempt on the named sink.
func (op *OutboxProcessor) Buffer(_ context.Context, sink string, n domain.Notification) error {
	if op == nil || op.store == nil {
		return fmt.Errorf("outbox not configured")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	priority := buffer.PriorityDueSoon
	if n.Type == domain.NotificationOverdue {
		priority = buffer.PriorityOverdue
	}
	return op.store.Enqueue(buffer.Item{
		Sink:     sink,
		Data:     payload,
		Priority: priority,
	})
}

// Drain re-publishes one batch synchronously.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}
	if op.monitor != nil && !op.monitor.IsOnline() {
		op.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := op.store.GetBatch(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := op.processItem(ctx, item); err != nil {
			item.Retries++
			item.LastError = err.Error()
			if item.Retries >= op.cfg.MaxRetries {
				op.logger.Warn("dropping notification (max retries reached)",
					zap.String("item_id", item.ID),
					zap.String("sink", item.Sink),
					zap.Error(err))
				if err := op.store.Remove(item); err != nil {
					op.logger.Warn("failed to remove outbox item", zap.Error(err))
				}
				continue
			}
			if err := op.store.Requeue(item); err != nil {
				op.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := op.store.Remove(item); err != nil {
			op.logger.Warn("failed to purge delivered outbox item", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of buffered notifications.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboxProcessor) processItem(ctx context.Context, item buffer.Item) error {
	sink, ok := op.sinks[item.Sink]
	if !ok {
		return fmt.Errorf("unknown sink %q", item.Sink)
	}
	var n domain.Notification
	if err := json.Unmarshal(item.Data, &n); err != nil {
		return err
	}
	return sink.Publish(ctx, n)
}
