package domain

import "time"

// Collection names of a Snapshot.
const (
	CollectionUsers    = "users"
	CollectionProjects = "projects"
	CollectionTasks    = "tasks"
	CollectionOverdue  = "overdue"
)

// Snapshot is the result of exactly one successful refresh cycle. It is never
// mutated after construction; a new cycle replaces it as a whole.
type Snapshot struct {
	Users     []User    `json:"users"`
	Projects  []Project `json:"projects"`
	Tasks     []Task    `json:"tasks"`
	Overdue   []Task    `json:"overdue"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Collection returns the number of records held under name. Unknown names
// and a nil snapshot report zero.
func (s *Snapshot) Collection(name string) int {
	if s == nil {
		return 0
	}
	switch name {
	case CollectionUsers:
		return len(s.Users)
	case CollectionProjects:
		return len(s.Projects)
	case CollectionTasks:
		return len(s.Tasks)
	case CollectionOverdue:
		return len(s.Overdue)
	default:
		return 0
	}
}

func (s *Snapshot) UserList() []User {
	if s == nil {
		return nil
	}
	return s.Users
}

func (s *Snapshot) ProjectList() []Project {
	if s == nil {
		return nil
	}
	return s.Projects
}

func (s *Snapshot) TaskList() []Task {
	if s == nil {
		return nil
	}
	return s.Tasks
}

func (s *Snapshot) OverdueList() []Task {
	if s == nil {
		return nil
	}
	return s.Overdue
}

// ProjectTasks returns the tasks belonging to projectID in snapshot order.
func (s *Snapshot) ProjectTasks(projectID int64) []Task {
	var out []Task
	for _, t := range s.TaskList() {
		if t.ProjectID.Int64() == projectID {
			out = append(out, t)
		}
	}
	return out
}

// NewSnapshot assembles a snapshot from the collections of one cycle. Tasks
// that lack a project name or assignee are joined against projects and users.
func NewSnapshot(users []User, projects []Project, tasks, overdue []Task, fetchedAt time.Time) *Snapshot {
	projectNames := make(map[int64]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID.Int64()] = p.Name
	}
	byID := make(map[int64]User, len(users))
	for _, u := range users {
		byID[u.ID.Int64()] = u
	}

	joined := make([]Task, len(tasks))
	for i, t := range tasks {
		if t.ProjectName == "" {
			t.ProjectName = projectNames[t.ProjectID.Int64()]
		}
		if u, ok := byID[t.OwnerID.Int64()]; ok && t.OwnerID > 0 {
			if t.AssigneeUsername == "" {
				t.AssigneeUsername = u.Username
			}
			if t.AssigneeName == "" {
				t.AssigneeName = u.DisplayName()
			}
		}
		joined[i] = t
	}

	return &Snapshot{
		Users:     users,
		Projects:  projects,
		Tasks:     joined,
		Overdue:   overdue,
		FetchedAt: fetchedAt,
	}
}
