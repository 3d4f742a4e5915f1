package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/boardwatch/domain"
)

type recordingOutbox struct {
	mu    sync.Mutex
	sinks []string
}

func (o *recordingOutbox) Buffer(ctx context.Context, sink string, n domain.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sink)
	return nil
}

func event(taskID int64, kind domain.NotificationType, at time.Time) domain.Notification {
	return domain.Notification{Type: kind, TaskID: taskID, Title: "t", FiredAt: at}
}

func TestNotifierEmitNeverBlocks(t *testing.T) {
	n := NewNotifier(NotifierConfig{QueueSize: 2}, nil, nil)
	at := time.Now()

	queued := n.Emit([]domain.Notification{
		event(1, domain.NotificationOverdue, at),
		event(2, domain.NotificationOverdue, at),
		event(3, domain.NotificationDueSoon, at),
	})
	if queued != 2 || n.Dropped() != 1 || n.Pending() != 2 {
		t.Fatalf("expected 2 queued and 1 dropped, got queued=%d dropped=%d", queued, n.Dropped())
	}

	first := <-n.queue
	if first.ID == "" {
		t.Fatal("expected an event id to be assigned")
	}
}

func TestNotifierReemitsWithoutDedup(t *testing.T) {
	n := NewNotifier(NotifierConfig{QueueSize: 8}, nil, nil)
	at := time.Now()
	batch := []domain.Notification{event(1, domain.NotificationOverdue, at)}

	n.Emit(batch)
	n.Emit(batch)
	if n.Pending() != 2 || n.Suppressed() != 0 {
		t.Fatalf("expected repeated events to be queued, pending=%d", n.Pending())
	}
}

func TestNotifierDedupPerDay(t *testing.T) {
	n := NewNotifier(NotifierConfig{QueueSize: 8, Dedup: true}, nil, nil)
	day1 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	n.Emit([]domain.Notification{event(1, domain.NotificationOverdue, day1)})
	n.Emit([]domain.Notification{
		event(1, domain.NotificationOverdue, day1.Add(5*time.Minute)),
		event(1, domain.NotificationDueSoon, day1),
	})
	if n.Pending() != 2 || n.Suppressed() != 1 {
		t.Fatalf("expected one suppressed event, pending=%d suppressed=%d", n.Pending(), n.Suppressed())
	}

	n.Emit([]domain.Notification{event(1, domain.NotificationOverdue, day1.Add(24*time.Hour))})
	if n.Pending() != 3 {
		t.Fatalf("expected the next day to re-emit, pending=%d", n.Pending())
	}
}

func TestNotifierDedupDoesNotRememberDroppedEvents(t *testing.T) {
	n := NewNotifier(NotifierConfig{QueueSize: 1, Dedup: true}, nil, nil)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	queued := n.Emit([]domain.Notification{
		event(1, domain.NotificationOverdue, at),
		event(2, domain.NotificationOverdue, at),
	})
	if queued != 1 || n.Dropped() != 1 {
		t.Fatalf("expected one queued and one dropped, queued=%d dropped=%d", queued, n.Dropped())
	}

	<-n.queue

	queued = n.Emit([]domain.Notification{event(2, domain.NotificationOverdue, at.Add(5*time.Minute))})
	if queued != 1 || n.Suppressed() != 0 {
		t.Fatalf("expected dropped event to be queued on the next cycle, queued=%d suppressed=%d", queued, n.Suppressed())
	}
}

func TestNotifierDispatchesAndBuffersFailures(t *testing.T) {
	good := &recordingSink{name: "log"}
	bad := &recordingSink{name: "redis", err: errors.New("connection refused")}
	outbox := &recordingOutbox{}
	n := NewNotifier(NotifierConfig{QueueSize: 8}, outbox, nil, good, bad)
	n.Start()

	n.Emit([]domain.Notification{event(5, domain.NotificationDueSoon, time.Now())})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := good.received(); len(got) != 1 || got[0].TaskID != 5 {
		t.Fatalf("expected event on the healthy sink, got %+v", got)
	}
	if len(outbox.sinks) != 1 || outbox.sinks[0] != "redis" {
		t.Fatalf("expected failed publish to be buffered for redis, got %v", outbox.sinks)
	}
	if n.Delivered() != 1 {
		t.Fatalf("expected one delivery, got %d", n.Delivered())
	}
}
