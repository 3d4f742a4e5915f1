package services

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeBoard struct {
	mu       sync.Mutex
	users    []domain.User
	projects []domain.Project
	active   map[int64][]domain.Task
	closed   map[int64][]domain.Task
	overdue  []domain.Task

	failMethod string
	failErr    error

	gate    chan struct{}
	entered chan struct{}
	calls   map[string]int
}

func (b *fakeBoard) record(method string) error {
	b.mu.Lock()
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[method]++
	failMethod, failErr := b.failMethod, b.failErr
	b.mu.Unlock()

	if method == failMethod {
		return failErr
	}
	return nil
}

func (b *fakeBoard) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *fakeBoard) fail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failMethod = method
	b.failErr = err
}

func (b *fakeBoard) Users(ctx context.Context) ([]domain.User, error) {
	if b.entered != nil {
		select {
		case b.entered <- struct{}{}:
		default:
		}
	}
	if b.gate != nil {
		<-b.gate
	}
	if err := b.record("getAllUsers"); err != nil {
		return nil, err
	}
	return b.users, nil
}

func (b *fakeBoard) Projects(ctx context.Context) ([]domain.Project, error) {
	if err := b.record("getAllProjects"); err != nil {
		return nil, err
	}
	return b.projects, nil
}

func (b *fakeBoard) Tasks(ctx context.Context, projectID int64, status repository.TaskStatus) ([]domain.Task, error) {
	if err := b.record("getAllTasks"); err != nil {
		return nil, err
	}
	if status == repository.TaskStatusClosed {
		return b.closed[projectID], nil
	}
	return b.active[projectID], nil
}

func (b *fakeBoard) OverdueTasks(ctx context.Context) ([]domain.Task, error) {
	if err := b.record("getOverdueTasks"); err != nil {
		return nil, err
	}
	return b.overdue, nil
}

type recordingEmitter struct {
	mu      sync.Mutex
	batches [][]domain.Notification
}

func (e *recordingEmitter) Emit(batch []domain.Notification) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, batch)
	return len(batch)
}

func (e *recordingEmitter) snapshot() [][]domain.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]domain.Notification(nil), e.batches...)
}

type recordingSink struct {
	name string
	err  error

	mu  sync.Mutex
	got []domain.Notification
}

func (s *recordingSink) Name() string {
	return s.name
}

func (s *recordingSink) Publish(ctx context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingSink) received() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.got...)
}

type staticHealth bool

func (h staticHealth) IsOnline() bool {
	return bool(h)
}
