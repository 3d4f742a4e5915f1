package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/fastygo/boardwatch/domain"
)

const (
	Name     = "kanboard_tasks"
	UniqueID = "kanboard_calendar"

	// EventDuration is the length given to every due-date event.
	EventDuration = time.Hour
	// Lookahead bounds the search for the next upcoming event.
	Lookahead = 7 * 24 * time.Hour
)

// SnapshotSource is satisfied by the update coordinator.
type SnapshotSource interface {
	Snapshot() *domain.Snapshot
}

// Event is a task due date rendered as a calendar entry.
type Event struct {
	TaskID      int64     `json:"task_id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	ProjectName string    `json:"project_name,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Events returns tasks due within [start, end], ascending by start and then task id.
func Events(snap *domain.Snapshot, start, end time.Time) []Event {
	events := make([]Event, 0)
	for _, t := range snap.TaskList() {
		due, ok := t.Due()
		if !ok || due.Before(start) || due.After(end) {
			continue
		}
		events = append(events, Event{
			TaskID:      t.ID.Int64(),
			Summary:     "Task Due: " + t.Title,
			Description: t.Description,
			ProjectName: t.ProjectName,
			Start:       due,
			End:         due.Add(EventDuration),
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].TaskID < events[j].TaskID
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// Next returns the first event within Lookahead of now.
func Next(snap *domain.Snapshot, now time.Time) (Event, bool) {
	events := Events(snap, now, now.Add(Lookahead))
	if len(events) == 0 {
		return Event{}, false
	}
	return events[0], true
}

type UseCase struct {
	source SnapshotSource
	clock  func() time.Time
}

func New(source SnapshotSource) *UseCase {
	return &UseCase{source: source, clock: time.Now}
}

// WithClock replaces the clock used for the default window and Next.
func (uc *UseCase) WithClock(clock func() time.Time) *UseCase {
	if clock != nil {
		uc.clock = clock
	}
	return uc
}

// Window returns the events in [start, end]. Zero bounds default to now and
// start + Lookahead.
func (uc *UseCase) Window(ctx context.Context, start, end time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = uc.clock()
	}
	if end.IsZero() {
		end = start.Add(Lookahead)
	}
	if end.Before(start) {
		return nil, domain.ErrInvalidWindow
	}
	return Events(uc.source.Snapshot(), start, end), nil
}

// Next returns the next upcoming event or domain.ErrNoUpcomingEvent.
func (uc *UseCase) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	event, ok := Next(uc.source.Snapshot(), uc.clock())
	if !ok {
		return Event{}, domain.ErrNoUpcomingEvent
	}
	return event, nil
}
