package task

import (
	domain "github.com/example/jarvis-task-api/domain/task"
)

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title    string                `json:"title"`
	Category domain.Category       `json:"category,omitempty"`
	Details  *string               `json:"details,omitempty"`
	SubTasks []domain.SubTaskInput `json:"subtasks,omitempty"`
	Tags     []string              `json:"tags,omitempty"`
}

// NewTask converts the request to the domain input.
func (r CreateTaskRequest) NewTask() domain.NewTask {
	return domain.NewTask{
		Title:    r.Title,
		Category: r.Category,
		Details:  r.Details,
		SubTasks: r.SubTasks,
		Tags:     r.Tags,
	}
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	ID uint `json:"id"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct{}

// ListTasksResponse is the response containing every task.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

// UpdateTaskRequest is the request for patching a task.
type UpdateTaskRequest struct {
	ID    uint         `json:"id"`
	Patch domain.Patch `json:"patch"`
}

// UpdateStatusRequest is the request for changing a task's status.
type UpdateStatusRequest struct {
	ID     uint          `json:"id"`
	Status domain.Status `json:"status"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ID uint `json:"id"`
}

// DeleteTaskResponse confirms a deletion.
type DeleteTaskResponse struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
