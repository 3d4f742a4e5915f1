package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/repository"
)

// Outbox persists notifications a remote sink did not accept.
type Outbox interface {
	Buffer(ctx context.Context, sink string, n domain.Notification) error
}

// NotifierConfig controls the notification queue.
type NotifierConfig struct {
	QueueSize      int
	Dedup          bool
	PublishTimeout time.Duration
}

// Notifier is a bounded queue between the coordinator and the notification sinks.
type Notifier struct {
	queue  chan domain.Notification
	sinks  []repository.NotificationPublisher
	outbox Outbox
	logger *zap.Logger
	cfg    NotifierConfig

	seenMu  sync.Mutex
	seenDay string
	seen    map[string]struct{}

	dropped    atomic.Uint64
	suppressed atomic.Uint64
	delivered  atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewNotifier(cfg NotifierConfig, outbox Outbox, logger *zap.Logger, sinks ...repository.NotificationPublisher) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		queue:  make(chan domain.Notification, cfg.QueueSize),
		sinks:  sinks,
		outbox: outbox,
		logger: logger,
		cfg:    cfg,
		seen:   make(map[string]struct{}),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Emit queues the batch without blocking. Events beyond the queue capacity are
// dropped and counted; with dedup on, events already queued today are skipped.
// A dropped event is not remembered, so a later cycle can deliver it.
func (n *Notifier) Emit(batch []domain.Notification) int {
	queued := 0
	for _, event := range batch {
		if event.FiredAt.IsZero() {
			event.FiredAt = time.Now()
		}
		if n.cfg.Dedup && n.alreadySeen(event) {
			n.suppressed.Add(1)
			continue
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		select {
		case n.queue <- event:
			queued++
		default:
			if n.cfg.Dedup {
				n.forget(event)
			}
			n.dropped.Add(1)
			n.logger.Warn("notification queue full, dropping event",
				zap.Int64("task_id", event.TaskID),
				zap.String("type", string(event.Type)))
		}
	}
	return queued
}

// Start launches the dispatch loop.
func (n *Notifier) Start() {
	go n.loop()
}

// Stop ends the dispatch loop after it has flushed queued events, bounded by ctx.
func (n *Notifier) Stop(ctx context.Context) error {
	n.stopOnce.Do(func() { close(n.stopCh) })
	select {
	case <-n.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns the number of events lost to a full queue.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Suppressed returns the number of events skipped by dedup.
func (n *Notifier) Suppressed() uint64 {
	return n.suppressed.Load()
}

// Delivered returns the number of successful sink publishes.
func (n *Notifier) Delivered() uint64 {
	return n.delivered.Load()
}

// Pending returns the number of queued events.
func (n *Notifier) Pending() int {
	return len(n.queue)
}

func (n *Notifier) loop() {
	defer close(n.doneCh)
	for {
		select {
		case event := <-n.queue:
			n.dispatch(event)
		case <-n.stopCh:
			for {
				select {
				case event := <-n.queue:
					n.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) dispatch(event domain.Notification) {
	for _, sink := range n.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.PublishTimeout)
		err := sink.Publish(ctx, event)
		cancel()
		if err == nil {
			n.delivered.Add(1)
			continue
		}

		n.logger.Warn("notification publish failed",
			zap.String("sink", sink.Name()),
			zap.String("event_id", event.ID),
			zap.Error(err))
		if n.outbox == nil {
			continue
		}
		ctx, cancel = context.WithTimeout(context.Background(), n.cfg.PublishTimeout)
		if err := n.outbox.Buffer(ctx, sink.Name(), event); err != nil {
			n.logger.Error("failed to buffer notification", zap.String("sink", sink.Name()), zap.Error(err))
		}
		cancel()
	}
}

func (n *Notifier) alreadySeen(event domain.Notification) bool {
	day := event.FiredAt.Format("2006-01-02")

	n.seenMu.Lock()
	defer n.seenMu.Unlock()
	if day != n.seenDay {
		n.seenDay = day
		n.seen = make(map[string]struct{})
	}
	key := event.DedupKey()
	if _, ok := n.seen[key]; ok {
		return true
	}
	n.seen[key] = struct{}{}
	return false
}

func (n *Notifier) forget(event domain.Notification) {
	n.seenMu.Lock()
	defer n.seenMu.Unlock()
	delete(n.seen, event.DedupKey())
}

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher writes every notification as a structured log entry.
func NewLogPublisher(logger *zap.Logger) repository.NotificationPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Name() string {
	return "log"
}

func (p *logPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.logger.Info("notification",
		zap.String("event_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.Int64("task_id", n.TaskID),
		zap.String("title", n.Title),
		zap.String("due_date", n.DueDate),
		zap.String("project_name", n.ProjectName),
		zap.String("assignee", n.AssigneeUsername))
	return nil
}
