package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// PluginModule provides the task cache as a mono plugin module.
// Plugins start first and stop last.
type PluginModule struct {
	container types.ServiceContainer
	client    *redis.Client
	cache     *Cache
	redisAddr string
	prefix    string
	ttl       time.Duration
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a cache plugin for the Redis server at redisAddr.
// The client is built immediately so Port() is usable before Start();
// go-redis dials lazily.
func NewPluginModule(redisAddr, prefix string, ttl time.Duration) *PluginModule {
	client := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &PluginModule{
		client:    client,
		cache:     New(client, prefix, ttl),
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start verifies the Redis connection.
func (m *PluginModule) Start(ctx context.Context) error {
	if err := m.cache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.redisAddr, err)
	}
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Stop closes the Redis connection.
func (m *PluginModule) Stop(_ context.Context) error {
	if err := m.cache.Close(); err != nil {
		log.Printf("[cache] Error closing Redis connection: %v", err)
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the cache consumers use.
func (m *PluginModule) Port() *Cache {
	return m.cache
}

// Health returns the current health status.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.redisAddr,
			"prefix":     m.prefix,
			"ttl":        m.ttl.String(),
			"stats":      m.cache.Stats(),
		},
	}
}
