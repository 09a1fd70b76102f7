package api

import (
	"context"
	"errors"
	"fmt"
	"log"

	taskmod "github.com/example/jarvis-task-api/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Module provides the HTTP API for the task store.
type Module struct {
	app            *fiber.App
	taskModule     *taskmod.TaskModule
	port           int
	allowedOrigins string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new API module. allowedOrigins is a comma-separated
// CORS origin list.
func NewModule(port int, allowedOrigins string) *Module {
	return &Module{
		port:           port,
		allowedOrigins: allowedOrigins,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
// The task module must be started before the HTTP server.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
// Handlers call the task service directly, so the container is only logged.
func (m *Module) SetDependencyServiceContainer(dependency string, _ mono.ServiceContainer) {
	log.Printf("[api] Dependency %q resolved", dependency)
}

// SetTaskModule sets the task module dependency.
func (m *Module) SetTaskModule(tm *taskmod.TaskModule) {
	m.taskModule = tm
}

// Start builds the Fiber app and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return fmt.Errorf("task module not set")
	}

	service := m.taskModule.Service()
	if service == nil {
		return fmt.Errorf("task service not available")
	}

	m.app = NewApp(NewHandlers(service, m.taskModule), m.allowedOrigins)

	go func() {
		addr := fmt.Sprintf(":%d", m.port)
		log.Printf("[api] Starting HTTP server on %s", addr)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Println("[api] Module started")
	return nil
}

// NewApp creates the Fiber app with middleware and routes.
func NewApp(h *Handlers, allowedOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Jarvis API",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	setupRoutes(app, h)
	return app
}

// setupRoutes configures all HTTP routes.
func setupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/", h.Root)
	app.Get("/health", h.HealthCheck)

	tasks := app.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Post("/", h.CreateTask)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Patch("/:id/status", h.UpdateStatus)
	tasks.Delete("/:id", h.DeleteTask)

	app.Get("/tags", h.ListTags)
}

// Stop stops the HTTP server gracefully.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		log.Println("[api] Shutting down HTTP server...")
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}
	log.Println("[api] Module stopped")
	return nil
}

// Health reports whether the HTTP server has been started.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "HTTP server not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"port":            m.port,
			"allowed_origins": m.allowedOrigins,
		},
	}
}

// errorHandler handles errors from Fiber routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   errorCode(code),
		Message: message,
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnprocessableEntity:
		return "validation_failed"
	}
	if status >= 500 {
		return "internal_error"
	}
	return "request_error"
}

// GetApp returns the Fiber app (for testing).
func (m *Module) GetApp() *fiber.App {
	return m.app
}
