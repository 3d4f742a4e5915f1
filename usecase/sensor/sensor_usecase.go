package sensor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/domain"
)

// View is the serialized form of an Entity.
type View struct {
	Name       string                 `json:"name"`
	UniqueID   string                 `json:"unique_id"`
	Kind       Kind                   `json:"kind,omitempty"`
	State      int                    `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Describe snapshots an entity into a View.
func Describe(e Entity) View {
	v := View{
		Name:       e.Name(),
		UniqueID:   e.UniqueID(),
		State:      e.State(),
		Attributes: e.Attributes(),
	}
	if s, ok := e.(*Sensor); ok {
		v.Kind = s.Kind()
	}
	return v
}

type UseCase struct {
	source     SnapshotSource
	windowDays int
	clock      func() time.Time
	logger     *zap.Logger
}

func New(source SnapshotSource, windowDays int, logger *zap.Logger) *UseCase {
	if windowDays <= 0 {
		windowDays = domain.DefaultDueSoonDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		source:     source,
		windowDays: windowDays,
		clock:      time.Now,
		logger:     logger,
	}
}

// WithClock replaces the reference clock used for due-date attributes.
func (uc *UseCase) WithClock(clock func() time.Time) *UseCase {
	if clock != nil {
		uc.clock = clock
	}
	return uc
}

// Entities builds the fixed sensors plus one per project, all projected from
// a single load of the current snapshot.
func (uc *UseCase) Entities(ctx context.Context) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := uc.source.Snapshot()

	sensors := []*Sensor{
		newSensor(KindUsers, uc.source, uc.windowDays, uc.clock),
		newSensor(KindProjects, uc.source, uc.windowDays, uc.clock),
		newSensor(KindTasks, uc.source, uc.windowDays, uc.clock),
	}
	for _, p := range snap.ProjectList() {
		sensors = append(sensors, newProjectSensor(p, uc.source, uc.clock))
	}

	entities := make([]Entity, 0, len(sensors))
	for _, s := range sensors {
		s.apply(snap)
		entities = append(entities, s)
	}
	return entities, nil
}

// Get returns the entity with the given unique id.
func (uc *UseCase) Get(ctx context.Context, uniqueID string) (Entity, error) {
	entities, err := uc.Entities(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		if e.UniqueID() == uniqueID {
			return e, nil
		}
	}
	uc.logger.Debug("sensor not found", zap.String("unique_id", uniqueID))
	return nil, domain.ErrSensorNotFound
}

// Views is Entities rendered for transport.
func (uc *UseCase) Views(ctx context.Context) ([]View, error) {
	entities, err := uc.Entities(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(entities))
	for _, e := range entities {
		views = append(views, Describe(e))
	}
	return views, nil
}

// Breakdown returns the per-project task counts of the current snapshot.
func (uc *UseCase) Breakdown(ctx context.Context) ([]ProjectCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ProjectBreakdown(uc.source.Snapshot()), nil
}
