package domain

import (
	"time"
)

// DefaultDueSoonDays is the due-soon window in whole days.
const DefaultDueSoonDays = 2

const day = 24 * time.Hour

// Classification partitions tasks with a due date relative to a reference instant.
type Classification struct {
	Overdue []Task
	DueSoon []Task
}

// Empty reports whether nothing was classified.
func (c Classification) Empty() bool {
	return len(c.Overdue) == 0 && len(c.DueSoon) == 0
}

// DaysUntil returns the whole days between ref and due, truncated toward zero.
// 47 hours ahead is 1 day, 49 hours ahead is 2 days.
func DaysUntil(due, ref time.Time) int {
	return int(due.Sub(ref) / day)
}

// Classify splits tasks into overdue (due < ref) and due soon (due > ref and at
// most windowDays truncated days away). Tasks without a due date and tasks due
// exactly at ref are in neither list. windowDays <= 0 uses DefaultDueSoonDays.
func Classify(tasks []Task, ref time.Time, windowDays int) Classification {
	if windowDays <= 0 {
		windowDays = DefaultDueSoonDays
	}

	var c Classification
	for _, t := range tasks {
		due, ok := t.Due()
		if !ok {
			continue
		}
		switch {
		case due.Before(ref):
			c.Overdue = append(c.Overdue, t)
		case due.After(ref) && DaysUntil(due, ref) <= windowDays:
			c.DueSoon = append(c.DueSoon, t)
		}
	}
	return c
}

// BuildNotifications turns a classification into notification records, overdue
// first. Overdue records carry project and assignee context from the task
// itself, or from the server's overdue listing when the task lacks it.
func BuildNotifications(c Classification, overdueListing []Task, ref time.Time) []Notification {
	known := make(map[int64]Task, len(overdueListing))
	for _, t := range overdueListing {
		known[t.ID.Int64()] = t
	}

	out := make([]Notification, 0, len(c.Overdue)+len(c.DueSoon))
	for _, t := range c.Overdue {
		n := newNotification(NotificationOverdue, t, ref)
		n.ProjectID = t.ProjectID.Int64()
		n.ProjectName = t.ProjectName
		n.AssigneeUsername = t.AssigneeUsername
		n.AssigneeName = t.AssigneeName
		if extra, ok := known[t.ID.Int64()]; ok {
			if n.ProjectID == 0 {
				n.ProjectID = extra.ProjectID.Int64()
			}
			if n.ProjectName == "" {
				n.ProjectName = extra.ProjectName
			}
			if n.AssigneeUsername == "" {
				n.AssigneeUsername = extra.AssigneeUsername
			}
			if n.AssigneeName == "" {
				n.AssigneeName = extra.AssigneeName
			}
		}
		out = append(out, n)
	}
	for _, t := range c.DueSoon {
		out = append(out, newNotification(NotificationDueSoon, t, ref))
	}
	return out
}

func newNotification(kind NotificationType, t Task, ref time.Time) Notification {
	due, _ := t.Due()
	return Notification{
		Type:    kind,
		TaskID:  t.ID.Int64(),
		Title:   t.Title,
		DueDate: due.UTC().Format(time.RFC3339),
		FiredAt: ref,
	}
}
