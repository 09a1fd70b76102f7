package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/jarvis-task-api/domain/task"
	"github.com/example/jarvis-task-api/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// TaskModule owns the task database and exposes the task store.
type TaskModule struct {
	db          *gorm.DB
	repo        *domain.Repository
	service     *Service
	cache       Cache
	databaseURL string
	debug       bool
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
	_ mono.UsePluginModule       = (*TaskModule)(nil)
)

// NewModule creates a new TaskModule for the given connection string.
func NewModule(databaseURL string, debug bool) *TaskModule {
	return &TaskModule{
		databaseURL: databaseURL,
		debug:       debug,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetPlugin receives plugin instances from the mono framework.
// The cache plugin is optional.
func (m *TaskModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if cachePlugin, ok := plugin.(*cache.PluginModule); ok {
		m.cache = cachePlugin.Port()
		log.Println("[task] Cache plugin injected")
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes names with "services.task.".
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-status", json.Unmarshal, json.Marshal, m.updateStatus,
	); err != nil {
		return fmt.Errorf("failed to register update-status service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	log.Printf("[task] Registered services: services.task.{create,get,list,update,update-status,delete}")
	return nil
}

// Start opens the database, runs migrations and builds the service.
func (m *TaskModule) Start(_ context.Context) error {
	db, err := OpenDatabase(m.databaseURL, m.debug)
	if err != nil {
		return err
	}
	m.db = db

	m.repo = domain.NewRepository(db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.service = NewService(m.repo, m.cache)

	log.Printf("[task] Module started (driver: %s, cache: %t)", db.Dialector.Name(), m.cache != nil)
	return nil
}

// Stop closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[task] Database connection closed")
	return nil
}

// Service returns the task service. It is nil until Start succeeds.
func (m *TaskModule) Service() *Service {
	return m.service
}

// Health pings the database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.db.Dialector.Name(),
		},
	}
}
