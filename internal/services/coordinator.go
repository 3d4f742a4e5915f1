package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/infrastructure/kanboard"
	"github.com/fastygo/boardwatch/repository"
)

// Emitter accepts notifications without blocking and reports how many were queued.
type Emitter interface {
	Emit(batch []domain.Notification) int
}

// CoordinatorConfig controls refresh cadence and classification.
type CoordinatorConfig struct {
	Interval      time.Duration
	MinInterval   time.Duration
	DueSoonDays   int
	IncludeClosed bool
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Coordinator runs refresh cycles against the board and owns the current snapshot.
type Coordinator struct {
	board   repository.BoardRepository
	emitter Emitter
	logger  *zap.Logger
	cfg     CoordinatorConfig
	cron    *cron.Cron

	group    singleflight.Group
	snapshot atomic.Pointer[domain.Snapshot]

	mu     sync.Mutex
	status domain.RefreshStatus
}

func NewCoordinator(board repository.BoardRepository, emitter Emitter, logger *zap.Logger, cfg CoordinatorConfig) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = 300 * time.Second
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = domain.DefaultDueSoonDays
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Coordinator{
		board:   board,
		emitter: emitter,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		status:  domain.RefreshStatus{State: domain.RefreshIdle},
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	_, _ = c.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		_, _ = c.Refresh(ctx)
	})

	return c
}

// Start performs the first refresh synchronously and then schedules periodic ticks.
func (c *Coordinator) Start(ctx context.Context) domain.RefreshOutcome {
	outcome, _ := c.Refresh(ctx)
	c.cron.Start()
	c.logger.Info("coordinator started",
		zap.Duration("interval", c.cfg.Interval),
		zap.String("first_outcome", string(outcome)))
	return outcome
}

// Stop halts the scheduler and waits for a running tick, bounded by ctx.
func (c *Coordinator) Stop(ctx context.Context) error {
	stopCtx := c.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info("coordinator stopped")
	return nil
}

// Snapshot returns the latest successful snapshot, or nil before the first one.
func (c *Coordinator) Snapshot() *domain.Snapshot {
	return c.snapshot.Load()
}

// Status returns a copy of the coordinator status.
func (c *Coordinator) Status() domain.RefreshStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.status
	status.HasSnapshot = c.snapshot.Load() != nil
	return status
}

// Refresh triggers one cycle. Callers that overlap an in-flight cycle share
// its outcome; a trigger within MinInterval of the last attempt is throttled.
func (c *Coordinator) Refresh(ctx context.Context) (domain.RefreshOutcome, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.run(ctx)
	})
	outcome, _ := v.(domain.RefreshOutcome)
	return outcome, err
}

func (c *Coordinator) run(ctx context.Context) (domain.RefreshOutcome, error) {
	started := c.cfg.Clock()

	c.mu.Lock()
	last := c.status.LastAttempt
	if !last.IsZero() && c.cfg.MinInterval > 0 && started.Sub(last) < c.cfg.MinInterval {
		c.mu.Unlock()
		c.logger.Debug("refresh throttled", zap.Time("last_attempt", last))
		return domain.OutcomeThrottled, nil
	}
	c.status.State = domain.RefreshRefreshing
	c.status.LastAttempt = started
	c.mu.Unlock()

	snap, err := c.fetch(ctx, started)

	c.mu.Lock()
	c.status.State = domain.RefreshIdle
	if err != nil {
		method := kanboard.MethodOf(err)
		c.status.LastError = err.Error()
		c.status.LastErrorMethod = method
		c.status.ConsecutiveFailures++
		failures := c.status.ConsecutiveFailures
		c.mu.Unlock()

		c.logger.Error("refresh failed, keeping previous snapshot",
			zap.String("method", method),
			zap.String("kind", kanboard.Kind(err)),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
		return domain.OutcomeFailed, domain.WrapError(domain.ErrCodeUnavailable, domain.ErrRefreshFailed.Message, err)
	}
	c.snapshot.Store(snap)
	c.status.LastSuccess = started
	c.status.LastError = ""
	c.status.LastErrorMethod = ""
	c.status.ConsecutiveFailures = 0
	c.mu.Unlock()

	emitted := c.notify(snap, started)
	c.logger.Info("refresh finished",
		zap.Int("users", snap.Collection(domain.CollectionUsers)),
		zap.Int("projects", snap.Collection(domain.CollectionProjects)),
		zap.Int("tasks", snap.Collection(domain.CollectionTasks)),
		zap.Int("notifications", emitted),
		zap.Duration("took", c.cfg.Clock().Sub(started)))
	return domain.OutcomeRefreshed, nil
}

func (c *Coordinator) fetch(ctx context.Context, fetchedAt time.Time) (*domain.Snapshot, error) {
	users, err := c.board.Users(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := c.board.Projects(ctx)
	if err != nil {
		return nil, err
	}

	statuses := []repository.TaskStatus{repository.TaskStatusActive}
	if c.cfg.IncludeClosed {
		statuses = append(statuses, repository.TaskStatusClosed)
	}

	var tasks []domain.Task
	for _, p := range projects {
		for _, status := range statuses {
			batch, err := c.board.Tasks(ctx, p.ID.Int64(), status)
			if err != nil {
				return nil, fmt.Errorf("project %d: %w", p.ID.Int64(), err)
			}
			tasks = append(tasks, batch...)
		}
	}

	overdue, err := c.board.OverdueTasks(ctx)
	if err != nil {
		return nil, err
	}

	return domain.NewSnapshot(users, projects, tasks, overdue, fetchedAt), nil
}

func (c *Coordinator) notify(snap *domain.Snapshot, ref time.Time) int {
	if c.emitter == nil {
		return 0
	}
	classified := domain.Classify(domain.OpenTasks(snap.TaskList()), ref, c.cfg.DueSoonDays)
	if classified.Empty() {
		return 0
	}
	return c.emitter.Emit(domain.BuildNotifications(classified, snap.OverdueList(), ref))
}

