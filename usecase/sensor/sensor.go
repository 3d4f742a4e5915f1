package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fastygo/boardwatch/domain"
)

// Kind tags the projection a Sensor applies to the snapshot.
type Kind string

const (
	KindUsers        Kind = "users"
	KindProjects     Kind = "projects"
	KindTasks        Kind = "tasks"
	KindProjectTasks Kind = "project_tasks"
)

// SnapshotSource is satisfied by the update coordinator.
type SnapshotSource interface {
	Snapshot() *domain.Snapshot
}

// Entity is a read-only view over the latest snapshot.
type Entity interface {
	Name() string
	UniqueID() string
	State() int
	Attributes() map[string]interface{}
	Refresh(ctx context.Context) error
}

// Sensor is the single Entity implementation; Kind selects the projection.
type Sensor struct {
	kind       Kind
	projectID  int64
	source     SnapshotSource
	windowDays int
	clock      func() time.Time

	mu          sync.RWMutex
	projectName string
	state       int
	attrs       map[string]interface{}
}

func newSensor(kind Kind, source SnapshotSource, windowDays int, clock func() time.Time) *Sensor {
	s := &Sensor{
		kind:       kind,
		source:     source,
		windowDays: windowDays,
		clock:      clock,
	}
	s.apply(nil)
	return s
}

func newProjectSensor(p domain.Project, source SnapshotSource, clock func() time.Time) *Sensor {
	s := &Sensor{
		kind:        KindProjectTasks,
		projectID:   p.ID.Int64(),
		projectName: p.Name,
		source:      source,
		clock:       clock,
	}
	s.apply(nil)
	return s
}

// Kind reports which projection the sensor applies.
func (s *Sensor) Kind() Kind {
	return s.kind
}

func (s *Sensor) Name() string {
	switch s.kind {
	case KindUsers:
		return "Kanboard Users"
	case KindProjects:
		return "Kanboard Projects"
	case KindTasks:
		return "Kanboard Tasks"
	default:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fmt.Sprintf("Kanboard Project %s Tasks", s.projectName)
	}
}

func (s *Sensor) UniqueID() string {
	if s.kind == KindProjectTasks {
		return fmt.Sprintf("kanboard_project_%d_tasks", s.projectID)
	}
	return "kanboard_" + string(s.kind)
}

func (s *Sensor) State() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attributes returns a copy of the last projected attributes.
func (s *Sensor) Attributes() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// Refresh re-projects the current snapshot.
func (s *Sensor) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.apply(s.source.Snapshot())
	return nil
}

func (s *Sensor) apply(snap *domain.Snapshot) {
	var (
		state int
		attrs map[string]interface{}
	)

	switch s.kind {
	case KindUsers:
		state = snap.Collection(domain.CollectionUsers)
		attrs = map[string]interface{}{}

	case KindProjects:
		projects := snap.ProjectList()
		open := 0
		for _, p := range projects {
			if p.Open() {
				open++
			}
		}
		state = len(projects)
		attrs = map[string]interface{}{
			"open":   open,
			"closed": len(projects) - open,
			"total":  len(projects),
		}

	case KindTasks:
		tasks := snap.TaskList()
		counts := countTasks(tasks)
		classified := domain.Classify(domain.OpenTasks(tasks), s.clock(), s.windowDays)
		state = counts.Total
		attrs = map[string]interface{}{
			"in_progress": counts.InProgress,
			"stalled":     counts.Stalled,
			"total":       counts.Total,
			"due_soon":    titles(classified.DueSoon),
			"overdue":     titles(classified.Overdue),
		}

	case KindProjectTasks:
		counts := countTasks(snap.ProjectTasks(s.projectID))
		state = counts.Total
		attrs = map[string]interface{}{
			"in_progress": counts.InProgress,
			"stalled":     counts.Stalled,
			"total":       counts.Total,
			"project_id":  s.projectID,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind == KindProjectTasks {
		for _, p := range snap.ProjectList() {
			if p.ID.Int64() == s.projectID && p.Name != "" {
				s.projectName = p.Name
			}
		}
		attrs["project_name"] = s.projectName
	}
	s.state = state
	s.attrs = attrs
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
