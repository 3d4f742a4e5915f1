package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/infrastructure/buffer"
)

func openOutbox(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOutboxProcessorRedelivers(t *testing.T) {
	store := openOutbox(t)
	sink := &recordingSink{name: "redis"}
	op := NewOutboxProcessor(store, staticHealth(true), nil, ProcessorConfig{Interval: time.Hour}, sink)
	ctx := context.Background()

	if err := op.Buffer(ctx, "redis", event(9, domain.NotificationOverdue, time.Now())); err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	if op.Size() != 1 {
		t.Fatalf("expected one buffered item, got %d", op.Size())
	}
	if err := op.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if got := sink.received(); len(got) != 1 || got[0].TaskID != 9 {
		t.Fatalf("expected redelivery, got %+v", got)
	}
	if op.Size() != 0 {
		t.Fatalf("expected empty outbox, got %d", op.Size())
	}
}

func TestOutboxProcessorDropsAfterMaxRetries(t *testing.T) {
	store := openOutbox(t)
	sink := &recordingSink{name: "kafka", err: errors.New("leader not available")}
	op := NewOutboxProcessor(store, nil, nil, ProcessorConfig{Interval: time.Hour, MaxRetries: 2}, sink)
	ctx := context.Background()

	_ = op.Buffer(ctx, "kafka", event(1, domain.NotificationDueSoon, time.Now()))

	_ = op.Drain(ctx)
	items, _ := store.GetBatch(10)
	if len(items) != 1 || items[0].Retries != 1 || items[0].LastError == "" {
		t.Fatalf("expected one retried item, got %+v", items)
	}

	_ = op.Drain(ctx)
	if op.Size() != 0 {
		t.Fatalf("expected item to be dropped, got %d", op.Size())
	}
}

func TestOutboxProcessorSkipsWhileOffline(t *testing.T) {
	store := openOutbox(t)
	sink := &recordingSink{name: "redis"}
	op := NewOutboxProcessor(store, staticHealth(false), nil, ProcessorConfig{Interval: time.Hour}, sink)
	ctx := context.Background()

	_ = op.Buffer(ctx, "redis", event(1, domain.NotificationOverdue, time.Now()))
	if err := op.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(sink.received()) != 0 || op.Size() != 1 {
		t.Fatal("expected drain to be skipped while offline")
	}
}

func TestOutboxProcessorUnknownSink(t *testing.T) {
	store := openOutbox(t)
	op := NewOutboxProcessor(store, nil, nil, ProcessorConfig{Interval: time.Hour, MaxRetries: 1})
	ctx := context.Background()

	_ = op.Buffer(ctx, "smtp", event(1, domain.NotificationOverdue, time.Now()))
	_ = op.Drain(ctx)
	if op.Size() != 0 {
		t.Fatal("expected item for an unknown sink to be dropped")
	}
}

func TestNilOutboxProcessor(t *testing.T) {
	var op *OutboxProcessor
	if err := op.Buffer(context.Background(), "redis", domain.Notification{}); err == nil {
		t.Fatal("expected error from unconfigured outbox")
	}
	if op.Size() != 0 || op.Drain(context.Background()) != nil {
		t.Fatal("expected nil processor to be inert")
	}
}
