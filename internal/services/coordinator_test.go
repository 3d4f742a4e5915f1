package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/infrastructure/kanboard"
)

func epoch(t time.Time) domain.LooseInt {
	return domain.LooseInt(t.Unix())
}

func seededBoard(now time.Time) *fakeBoard {
	return &fakeBoard{
		users: []domain.User{{ID: 1, Username: "ana", Name: "Ana"}, {ID: 2, Username: "bo"}},
		projects: []domain.Project{
			{ID: 1, Name: "Ops", IsActive: 1},
			{ID: 2, Name: "Web", IsActive: 0},
		},
		active: map[int64][]domain.Task{
			1: {
				{ID: 10, Title: "Late", ProjectID: 1, IsActive: 1, DateDue: epoch(now.Add(-time.Hour))},
				{ID: 11, Title: "Soon", ProjectID: 1, IsActive: 1, OwnerID: 1, DateDue: epoch(now.Add(25 * time.Hour))},
				{ID: 12, Title: "Later", ProjectID: 1, IsActive: 1, DateDue: epoch(now.Add(72 * time.Hour))},
			},
			2: {
				{ID: 20, Title: "Undated", ProjectID: 2, IsActive: 1},
			},
		},
		closed: map[int64][]domain.Task{
			2: {{ID: 21, Title: "Done", ProjectID: 2, IsActive: 0}},
		},
		overdue: []domain.Task{
			{ID: 10, Title: "Late", ProjectID: 1, ProjectName: "Ops", AssigneeUsername: "bo", AssigneeName: "Bo"},
		},
	}
}

func TestCoordinatorRefreshBuildsSnapshot(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{IncludeClosed: true, Clock: clock.Now})

	if c.Snapshot() != nil || c.Status().HasSnapshot {
		t.Fatal("expected no snapshot before the first refresh")
	}

	outcome, err := c.Refresh(context.Background())
	if err != nil || outcome != domain.OutcomeRefreshed {
		t.Fatalf("expected refreshed, got %s (%v)", outcome, err)
	}

	snap := c.Snapshot()
	if snap.Collection(domain.CollectionUsers) != 2 || snap.Collection(domain.CollectionProjects) != 2 {
		t.Fatalf("unexpected collections %+v", snap)
	}
	if snap.Collection(domain.CollectionTasks) != 5 {
		t.Fatalf("expected active and closed tasks, got %d", len(snap.Tasks))
	}
	if board.count("getAllTasks") != 4 {
		t.Fatalf("expected two statuses per project, got %d calls", board.count("getAllTasks"))
	}
	if snap.Tasks[1].ProjectName != "Ops" || snap.Tasks[1].AssigneeUsername != "ana" {
		t.Fatalf("expected joined task, got %+v", snap.Tasks[1])
	}
	if !snap.FetchedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected fetched_at %s", snap.FetchedAt)
	}

	status := c.Status()
	if status.State != domain.RefreshIdle || !status.HasSnapshot || !status.LastSuccess.Equal(clock.Now()) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestCoordinatorExcludesClosedTasks(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{Clock: clock.Now})

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if board.count("getAllTasks") != 2 {
		t.Fatalf("expected one call per project, got %d", board.count("getAllTasks"))
	}
	if c.Snapshot().Collection(domain.CollectionTasks) != 4 {
		t.Fatalf("expected closed task to be skipped")
	}
}

func TestCoordinatorEmitsClassifiedNotifications(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	emitter := &recordingEmitter{}
	c := NewCoordinator(board, emitter, nil, CoordinatorConfig{Clock: clock.Now})

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	batches := emitter.snapshot()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one batch of two events, got %+v", batches)
	}
	overdue, soon := batches[0][0], batches[0][1]
	if overdue.Type != domain.NotificationOverdue || overdue.TaskID != 10 {
		t.Fatalf("expected overdue event first, got %+v", overdue)
	}
	if overdue.ProjectName != "Ops" || overdue.AssigneeName != "Bo" {
		t.Fatalf("expected context from overdue listing, got %+v", overdue)
	}
	if soon.Type != domain.NotificationDueSoon || soon.TaskID != 11 {
		t.Fatalf("expected due soon event, got %+v", soon)
	}
	if !soon.FiredAt.Equal(clock.Now()) {
		t.Fatalf("expected fired_at to be the cycle start, got %s", soon.FiredAt)
	}
}

func TestCoordinatorIgnoresClosedTasksForDeadlines(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	board.closed[2] = []domain.Task{
		{ID: 21, Title: "Done", ProjectID: 2, IsActive: 0, DateDue: epoch(clock.Now().Add(-48 * time.Hour))},
		{ID: 22, Title: "Closed early", ProjectID: 2, IsActive: 0, DateDue: epoch(clock.Now().Add(24 * time.Hour))},
	}
	emitter := &recordingEmitter{}
	c := NewCoordinator(board, emitter, nil, CoordinatorConfig{IncludeClosed: true, Clock: clock.Now})

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if c.Snapshot().Collection(domain.CollectionTasks) != 6 {
		t.Fatalf("closed tasks should stay in the snapshot, got %d", c.Snapshot().Collection(domain.CollectionTasks))
	}
	for _, batch := range emitter.snapshot() {
		for _, n := range batch {
			if n.TaskID == 21 || n.TaskID == 22 {
				t.Fatalf("closed task %d fired %s", n.TaskID, n.Type)
			}
		}
	}
}

func TestCoordinatorFailureKeepsPreviousSnapshot(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	emitter := &recordingEmitter{}
	c := NewCoordinator(board, emitter, nil, CoordinatorConfig{MinInterval: 30 * time.Second, Clock: clock.Now})

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	before := c.Snapshot()

	board.fail("getAllTasks", &kanboard.RemoteError{Method: "getAllTasks", Message: "access denied"})
	clock.Advance(time.Minute)

	outcome, err := c.Refresh(context.Background())
	if outcome != domain.OutcomeFailed || err == nil {
		t.Fatalf("expected failure, got %s (%v)", outcome, err)
	}
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Fatalf("expected unavailable domain error, got %v", err)
	}
	if c.Snapshot() != before {
		t.Fatal("failed cycle must not replace the snapshot")
	}
	if len(emitter.snapshot()) != 1 {
		t.Fatal("failed cycle must not emit notifications")
	}

	status := c.Status()
	if status.LastErrorMethod != "getAllTasks" || status.ConsecutiveFailures != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if !status.HasSnapshot || status.LastSuccess.Equal(status.LastAttempt) {
		t.Fatalf("expected last success to predate the failed attempt, got %+v", status)
	}

	board.fail("", nil)
	clock.Advance(time.Minute)
	if outcome, _ := c.Refresh(context.Background()); outcome != domain.OutcomeRefreshed {
		t.Fatalf("expected recovery, got %s", outcome)
	}
	if c.Status().ConsecutiveFailures != 0 {
		t.Fatal("expected failures to reset after success")
	}
}

func TestCoordinatorFailureBeforeFirstSnapshot(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	board.fail("getAllUsers", &kanboard.TransportError{Method: "getAllUsers", Err: fmt.Errorf("dial tcp: refused")})
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{Clock: clock.Now})

	if outcome, _ := c.Refresh(context.Background()); outcome != domain.OutcomeFailed {
		t.Fatalf("expected failure, got %s", outcome)
	}
	if c.Snapshot() != nil {
		t.Fatal("expected no snapshot")
	}
	if board.count("getAllProjects") != 0 {
		t.Fatal("cycle must stop at the first error")
	}
}

func TestCoordinatorThrottlesFromLastAttempt(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{MinInterval: 30 * time.Second, Clock: clock.Now})
	ctx := context.Background()

	if outcome, _ := c.Refresh(ctx); outcome != domain.OutcomeRefreshed {
		t.Fatalf("expected refreshed, got %s", outcome)
	}
	clock.Advance(10 * time.Second)
	if outcome, err := c.Refresh(ctx); outcome != domain.OutcomeThrottled || err != nil {
		t.Fatalf("expected throttled, got %s (%v)", outcome, err)
	}
	if board.count("getAllUsers") != 1 {
		t.Fatal("throttled trigger must not fetch")
	}
	clock.Advance(25 * time.Second)
	if outcome, _ := c.Refresh(ctx); outcome != domain.OutcomeRefreshed {
		t.Fatalf("expected refreshed after the window, got %s", outcome)
	}
}

func TestCoordinatorCoalescesOverlappingTriggers(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	board.gate = make(chan struct{})
	board.entered = make(chan struct{}, 1)
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{MinInterval: time.Hour, Clock: clock.Now})

	outcomes := make([]domain.RefreshOutcome, 3)
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], _ = c.Refresh(context.Background())
		}(i)
	}

	<-board.entered
	close(board.gate)
	wg.Wait()

	if board.count("getAllUsers") != 1 {
		t.Fatalf("expected a single cycle, got %d", board.count("getAllUsers"))
	}
	refreshed := 0
	for _, outcome := range outcomes {
		switch outcome {
		case domain.OutcomeRefreshed:
			refreshed++
		case domain.OutcomeThrottled:
		default:
			t.Fatalf("unexpected outcome %s", outcome)
		}
	}
	if refreshed == 0 {
		t.Fatal("expected at least one caller to observe the refresh")
	}
}

func TestCoordinatorStartAndStop(t *testing.T) {
	clock := newFakeClock()
	board := seededBoard(clock.Now())
	c := NewCoordinator(board, nil, nil, CoordinatorConfig{Interval: time.Hour, Clock: clock.Now})

	if outcome := c.Start(context.Background()); outcome != domain.OutcomeRefreshed {
		t.Fatalf("expected synchronous first refresh, got %s", outcome)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
