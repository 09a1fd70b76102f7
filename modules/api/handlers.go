package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"reflect"
	"strconv"

	domain "github.com/example/jarvis-task-api/domain/task"
	taskmod "github.com/example/jarvis-task-api/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// TaskStore is the task service as seen by the HTTP layer.
type TaskStore interface {
	Create(ctx context.Context, in domain.NewTask) (*domain.Task, error)
	Get(ctx context.Context, id uint) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, id uint, patch domain.Patch) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id uint, status domain.Status) (*domain.Task, error)
	Delete(ctx context.Context, id uint) (taskmod.DeleteTaskResponse, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

// HealthChecker reports database health.
type HealthChecker interface {
	Health(ctx context.Context) mono.HealthStatus
}

// Handlers provides HTTP handlers for the API.
type Handlers struct {
	store     TaskStore
	health    HealthChecker
	validator *Validator
}

// NewHandlers creates a new handlers instance.
func NewHandlers(store TaskStore, health HealthChecker) *Handlers {
	return &Handlers{
		store:     store,
		health:    health,
		validator: NewValidator(),
	}
}

// Root handles GET /.
func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "Jarvis API is running"})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	status := h.health.Health(c.UserContext())
	if !status.Healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:   "unavailable",
			Database: status.Message,
		})
	}
	return c.JSON(HealthResponse{
		Status:   "ok",
		Database: status.Message,
	})
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.store.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "list tasks")
	}
	return c.JSON(tasks)
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, err, "get task")
	}

	t, err := h.store.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "get task")
	}
	return c.JSON(t)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.bodyError(c, err, "create task")
	}
	if err := h.validator.Struct(req); err != nil {
		return h.fail(c, err, "create task")
	}

	t, err := h.store.Create(c.UserContext(), req.toDomain())
	if err != nil {
		return h.fail(c, err, "create task")
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// UpdateTask handles PATCH /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, err, "update task")
	}

	var patch domain.Patch
	if err := c.BodyParser(&patch); err != nil {
		return h.bodyError(c, err, "update task")
	}
	if err := h.validator.Patch(patch); err != nil {
		return h.fail(c, err, "update task")
	}

	t, err := h.store.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err, "update task")
	}
	return c.JSON(t)
}

// UpdateStatus handles PATCH /tasks/:id/status.
// The status comes from the JSON body or, failing that, the status query parameter.
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, err, "update status")
	}

	var req UpdateStatusRequest
	if q := c.Query("status"); q != "" {
		req.Status = domain.Status(q)
	} else if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return h.bodyError(c, err, "update status")
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return h.fail(c, err, "update status")
	}

	t, err := h.store.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return h.fail(c, err, "update status")
	}
	return c.JSON(t)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, err, "delete task")
	}

	resp, err := h.store.Delete(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "delete task")
	}
	return c.JSON(MessageResponse{Message: resp.Message})
}

// ListTags handles GET /tags.
func (h *Handlers) ListTags(c *fiber.Ctx) error {
	tags, err := h.store.ListTags(c.UserContext())
	if err != nil {
		return h.fail(c, err, "list tags")
	}
	return c.JSON(tags)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, &validationError{fields: []FieldError{{
			Field:   "id",
			Rule:    "uint",
			Message: "must be a positive integer",
		}}}
	}
	return uint(id), nil
}

// bodyError answers a body that could not be decoded. A well-formed body
// with a wrongly typed field is a validation failure on that field; anything
// else is a bad request.
func (h *Handlers) bodyError(c *fiber.Ctx, err error, op string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return h.fail(c, &validationError{fields: []FieldError{{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: "must be " + jsonKind(typeErr.Type),
		}}}, op)
	}
	return badRequest(c)
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	}
	return "a valid " + t.String()
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: "Invalid request body",
	})
}

// fail maps service and validation errors to HTTP responses.
func (h *Handlers) fail(c *fiber.Ctx, err error, op string) error {
	var verr *validationError
	var inputErr *domain.InputError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Fields:  verr.fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case errors.As(err, &inputErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Fields: []FieldError{{
				Field:   inputErr.Field,
				Rule:    inputErr.Rule,
				Message: inputErr.Message,
			}},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	log.Printf("[api] Error in %s: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "Failed to " + op,
	})
}
