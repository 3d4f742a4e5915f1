package monitor

import (
	"context"
	"errors"
	"testing"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/boardwatch/domain"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) *redislib.StatusCmd {
	cmd := redislib.NewStatusCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

type fakeOutbox struct {
	size int
}

func (o fakeOutbox) Size() (int, error) {
	return o.size, nil
}

type fakeRefresh struct{}

func (fakeRefresh) Status() domain.RefreshStatus {
	return domain.RefreshStatus{State: domain.RefreshIdle, HasSnapshot: true}
}

func TestMonitorAllDisabledIsOnline(t *testing.T) {
	m := New(Options{}, nil)
	m.Check()

	status := m.GetStatus()
	if status.Redis != StateDisabled || status.Kafka != StateDisabled || status.Outbox != StateDisabled {
		t.Fatalf("expected disabled components, got %+v", status)
	}
	if !m.IsOnline() {
		t.Fatal("expected online with no remote sinks")
	}
}

func TestMonitorReportsComponents(t *testing.T) {
	m := New(Options{
		Redis:        fakePinger{},
		KafkaBrokers: []string{"k1:9092", "k2:9092"},
		DialBroker: func(ctx context.Context, address string) error {
			if address == "k1:9092" {
				return errors.New("refused")
			}
			return nil
		},
		Outbox:  fakeOutbox{size: 3},
		Refresh: fakeRefresh{},
	}, nil)
	m.Check()

	status := m.GetStatus()
	if status.Redis != StateUp || status.Kafka != StateUp || status.OutboxSize != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
	if !status.Refresh.HasSnapshot {
		t.Fatal("expected refresh status to be included")
	}
	if !m.IsOnline() {
		t.Fatal("expected online")
	}
}

func TestMonitorOfflineWhenRedisDown(t *testing.T) {
	m := New(Options{Redis: fakePinger{err: errors.New("refused")}}, nil)
	m.Check()
	if m.IsOnline() {
		t.Fatal("expected offline when redis does not answer")
	}
	m.Stop()
	m.Stop()
}
