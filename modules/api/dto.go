package api

import (
	domain "github.com/example/jarvis-task-api/domain/task"
)

// CreateTaskRequest is the HTTP request for creating a task.
type CreateTaskRequest struct {
	Title    string                `json:"title" validate:"required,notblank,max=255"`
	Category domain.Category       `json:"category" validate:"omitempty,oneof=IU INU U NU waiting long-term"`
	Details  *string               `json:"details"`
	SubTasks []domain.SubTaskInput `json:"subtasks" validate:"omitempty,dive"`
	Tags     []string              `json:"tags" validate:"omitempty,dive,max=64"`
}

func (r CreateTaskRequest) toDomain() domain.NewTask {
	return domain.NewTask{
		Title:    r.Title,
		Category: r.Category,
		Details:  r.Details,
		SubTasks: r.SubTasks,
		Tags:     r.Tags,
	}
}

// UpdateStatusRequest is the HTTP request for changing a task's status.
type UpdateStatusRequest struct {
	Status domain.Status `json:"status" validate:"required,oneof=open in-progress done"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}
