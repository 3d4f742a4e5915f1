package sensor

import (
	"sort"

	"github.com/fastygo/boardwatch/domain"
)

// Counts is the in-progress / stalled split of a task group.
type Counts struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Stalled    int `json:"stalled"`
}

// ProjectCounts is one row of the per-project breakdown.
type ProjectCounts struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Counts
}

func countTasks(tasks []domain.Task) Counts {
	var c Counts
	for _, t := range tasks {
		c.Total++
		if t.InProgress() {
			c.InProgress++
		}
	}
	c.Stalled = c.Total - c.InProgress
	return c
}

// ProjectBreakdown groups the snapshot's tasks by project id, ordered by id.
// Projects without tasks are listed with zero counts.
func ProjectBreakdown(snap *domain.Snapshot) []ProjectCounts {
	rows := make(map[int64]*ProjectCounts)
	for _, p := range snap.ProjectList() {
		rows[p.ID.Int64()] = &ProjectCounts{ProjectID: p.ID.Int64(), ProjectName: p.Name}
	}
	for _, t := range snap.TaskList() {
		id := t.ProjectID.Int64()
		row, ok := rows[id]
		if !ok {
			row = &ProjectCounts{ProjectID: id, ProjectName: t.ProjectName}
			rows[id] = row
		}
		row.Total++
		if t.InProgress() {
			row.InProgress++
		} else {
			row.Stalled++
		}
	}

	out := make([]ProjectCounts, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}
