package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LooseInt decodes Kanboard integers, which arrive as JSON numbers, numeric
// strings, booleans or null depending on the server version and the method.
type LooseInt int64

// UnmarshalJSON implements the json.Unmarshaler interface for LooseInt.
func (n *LooseInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", `""`, "false":
		*n = 0
		return nil
	case "true":
		*n = 1
		return nil
	}

	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("failed to parse integer '%s': %w", s, err)
		}
		v = int64(f)
	}
	*n = LooseInt(v)
	return nil
}

// Int64 returns the plain integer value.
func (n LooseInt) Int64() int64 {
	return int64(n)
}

// Task is a Kanboard task as returned by getAllTasks / getOverdueTasks.
// ProjectName and assignee fields are filled in from the project and user
// listings of the same refresh cycle when the server does not send them.
type Task struct {
	ID               LooseInt `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	ProjectID        LooseInt `json:"project_id"`
	ProjectName      string   `json:"project_name,omitempty"`
	DateDue          LooseInt `json:"date_due"`
	IsActive         LooseInt `json:"is_active"`
	OwnerID          LooseInt `json:"owner_id"`
	AssigneeUsername string   `json:"assignee_username,omitempty"`
	AssigneeName     string   `json:"assignee_name,omitempty"`
	ColumnName       string   `json:"column_name,omitempty"`
	Reference        string   `json:"reference,omitempty"`
}

// Due returns the due instant. A zero or negative date_due means no due date.
func (t Task) Due() (time.Time, bool) {
	if t.DateDue <= 0 {
		return time.Time{}, false
	}
	return time.Unix(t.DateDue.Int64(), 0), true
}

// InProgress reports whether the task is open (is_active = 1).
func (t Task) InProgress() bool {
	return t.IsActive == 1
}

// OpenTasks returns the tasks that are still in progress. Closed tasks count
// towards totals but never towards deadlines.
func OpenTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.InProgress() {
			out = append(out, t)
		}
	}
	return out
}

// Project is a Kanboard project.
type Project struct {
	ID          LooseInt `json:"id"`
	Name        string   `json:"name"`
	IsActive    LooseInt `json:"is_active"`
	Description string   `json:"description,omitempty"`
}

// Open reports whether the project is active.
func (p Project) Open() bool {
	return p.IsActive == 1
}
