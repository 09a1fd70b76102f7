package task

import (
	"context"
	"errors"

	domain "github.com/example/jarvis-task-api/domain/task"
	"github.com/go-monolith/mono"
)

// errNotStarted is returned by services invoked before Start.
var errNotStarted = errors.New("task module not started")

// createTask handles the task.create service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (domain.Task, error) {
	if m.service == nil {
		return domain.Task{}, errNotStarted
	}
	t, err := m.service.Create(ctx, req.NewTask())
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// getTask handles the task.get service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (domain.Task, error) {
	if m.service == nil {
		return domain.Task{}, errNotStarted
	}
	t, err := m.service.Get(ctx, req.ID)
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// listTasks handles the task.list service request.
func (m *TaskModule) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	if m.service == nil {
		return ListTasksResponse{}, errNotStarted
	}
	tasks, err := m.service.List(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// updateTask handles the task.update service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (domain.Task, error) {
	if m.service == nil {
		return domain.Task{}, errNotStarted
	}
	t, err := m.service.Update(ctx, req.ID, req.Patch)
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// updateStatus handles the task.update-status service request.
func (m *TaskModule) updateStatus(ctx context.Context, req UpdateStatusRequest, _ *mono.Msg) (domain.Task, error) {
	if m.service == nil {
		return domain.Task{}, errNotStarted
	}
	t, err := m.service.UpdateStatus(ctx, req.ID, req.Status)
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// deleteTask handles the task.delete service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if m.service == nil {
		return DeleteTaskResponse{}, errNotStarted
	}
	return m.service.Delete(ctx, req.ID)
}
