package repository

import (
	"context"

	"github.com/fastygo/boardwatch/domain"
)

// TaskStatus is the Kanboard status_id filter of getAllTasks.
type TaskStatus int

const (
	TaskStatusClosed TaskStatus = 0
	TaskStatusActive TaskStatus = 1
)

// BoardRepository reads the collections a refresh cycle needs from the task server.
type BoardRepository interface {
	Users(ctx context.Context) ([]domain.User, error)
	Projects(ctx context.Context) ([]domain.Project, error)
	Tasks(ctx context.Context, projectID int64, status TaskStatus) ([]domain.Task, error)
	OverdueTasks(ctx context.Context) ([]domain.Task, error)
}
