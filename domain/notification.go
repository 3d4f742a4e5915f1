package domain

import (
	"fmt"
	"time"
)

// NotificationType names the event fired for a classified task.
type NotificationType string

const (
	NotificationDueSoon NotificationType = "task_due_soon"
	NotificationOverdue NotificationType = "task_overdue"
)

// Notification is one outbound deadline event.
type Notification struct {
	ID               string           `json:"id"`
	Type             NotificationType `json:"type"`
	TaskID           int64            `json:"task_id"`
	Title            string           `json:"title"`
	DueDate          string           `json:"due_date"`
	ProjectID        int64            `json:"project_id,omitempty"`
	ProjectName      string           `json:"project_name,omitempty"`
	AssigneeUsername string           `json:"assignee_username,omitempty"`
	AssigneeName     string           `json:"assignee_name,omitempty"`
	FiredAt          time.Time        `json:"fired_at"`
}

// DedupKey identifies a notification per task, type and calendar day of FiredAt.
func (n Notification) DedupKey() string {
	return fmt.Sprintf("%d:%s:%s", n.TaskID, n.Type, n.FiredAt.Format("2006-01-02"))
}
