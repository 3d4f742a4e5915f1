package kanboard

import (
	"context"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/repository"
)

// JSON-RPC methods consumed from the task server.
const (
	MethodGetAllUsers     = "getAllUsers"
	MethodGetAllProjects  = "getAllProjects"
	MethodGetAllTasks     = "getAllTasks"
	MethodGetOverdueTasks = "getOverdueTasks"
)

// Caller is implemented by the infrastructure JSON-RPC client.
type Caller interface {
	Call(ctx context.Context, method string, params interface{}, out interface{}) error
}

type boardRepository struct {
	rpc Caller
}

// NewBoardRepository creates a Kanboard-backed board repository.
func NewBoardRepository(rpc Caller) repository.BoardRepository {
	return &boardRepository{rpc: rpc}
}

func (r *boardRepository) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.rpc.Call(ctx, MethodGetAllUsers, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *boardRepository) Projects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := r.rpc.Call(ctx, MethodGetAllProjects, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *boardRepository) Tasks(ctx context.Context, projectID int64, status repository.TaskStatus) ([]domain.Task, error) {
	params := map[string]interface{}{
		"project_id": projectID,
		"status_id":  int(status),
	}
	var tasks []domain.Task
	if err := r.rpc.Call(ctx, MethodGetAllTasks, params, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *boardRepository) OverdueTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.rpc.Call(ctx, MethodGetOverdueTasks, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
