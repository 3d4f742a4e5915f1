package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/domain"
)

// Pinger is satisfied by *redis.Client.
type Pinger interface {
	Ping(ctx context.Context) *redislib.StatusCmd
}

// SizeReporter is satisfied by the outbox store.
type SizeReporter interface {
	Size() (int, error)
}

// RefreshReporter is satisfied by the update coordinator.
type RefreshReporter interface {
	Status() domain.RefreshStatus
}

// BrokerDialer checks that a Kafka broker accepts connections.
type BrokerDialer func(ctx context.Context, address string) error

// Options lists the components to watch. Nil fields are reported as disabled.
type Options struct {
	Redis        Pinger
	KafkaBrokers []string
	DialBroker   BrokerDialer
	Outbox       SizeReporter
	Refresh      RefreshReporter
	Interval     time.Duration
}

type Monitor struct {
	opts Options

	status Status
	mu     sync.RWMutex
	stopCh chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.DialBroker == nil {
		opts.DialBroker = dialKafka
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		opts:   opts,
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// WatchRefresh attaches the coordinator once it exists. Call before Start.
func (m *Monitor) WatchRefresh(r RefreshReporter) {
	m.opts.Refresh = r
}

func (m *Monitor) Start() {
	m.Check()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every configured remote sink answered the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Redis != StateDown && m.status.Kafka != StateDown
}

// GetStatus returns the last check with the live coordinator status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	status := m.status
	m.mu.RUnlock()
	if m.opts.Refresh != nil {
		status.Refresh = m.opts.Refresh.Status()
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stopCh:
			return
		}
	}
}

// Check probes every component once and stores the result.
func (m *Monitor) Check() {
	outboxState, outboxSize := m.checkOutbox()
	status := Status{
		Redis:      m.checkRedis(),
		Kafka:      m.checkKafka(),
		Outbox:     outboxState,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}
	if m.opts.Refresh != nil {
		status.Refresh = m.opts.Refresh.Status()
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Redis != status.Redis || previous.Kafka != status.Kafka {
		m.logger.Info("sink connectivity changed",
			zap.String("redis", string(status.Redis)),
			zap.String("kafka", string(status.Kafka)))
	}
}

func (m *Monitor) checkRedis() ComponentState {
	if m.opts.Redis == nil {
		return StateDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.opts.Redis.Ping(ctx).Err(); err != nil {
		return StateDown
	}
	return StateUp
}

func (m *Monitor) checkKafka() ComponentState {
	if len(m.opts.KafkaBrokers) == 0 {
		return StateDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var errs []error
	for _, broker := range m.opts.KafkaBrokers {
		err := m.opts.DialBroker(ctx, broker)
		if err == nil {
			return StateUp
		}
		errs = append(errs, err)
	}
	m.logger.Debug("kafka brokers unreachable", zap.Error(errors.Join(errs...)))
	return StateDown
}

func (m *Monitor) checkOutbox() (ComponentState, int) {
	if m.opts.Outbox == nil {
		return StateDisabled, 0
	}
	size, err := m.opts.Outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return StateDown, size
	}
	return StateUp, size
}

func dialKafka(ctx context.Context, address string) error {
	conn, err := kafkago.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}
