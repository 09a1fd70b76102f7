package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/example/jarvis-task-api/config"
	apimod "github.com/example/jarvis-task-api/modules/api"
	cachemod "github.com/example/jarvis-task-api/modules/cache"
	taskmod "github.com/example/jarvis-task-api/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("=== Jarvis Task API ===")
	log.Printf("Database: %s", redactURL(cfg.DatabaseURL))
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("CORS Origins: %s", cfg.CORSAllowedOrigins)
	if cfg.CacheEnabled() {
		log.Printf("Cache: Redis at %s (prefix: %s, TTL: %s)", cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
	} else {
		log.Println("Cache: disabled")
	}

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if strings.EqualFold(cfg.LogLevel, "error") {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// The framework calls SetPlugin("cache", ...) on the task module.
	if cfg.CacheEnabled() {
		cachePlugin := cachemod.NewPluginModule(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	}

	taskModule := taskmod.NewModule(cfg.DatabaseURL, cfg.DBDebug)
	apiModule := apimod.NewModule(cfg.HTTPPort, cfg.CORSAllowedOrigins)
	apiModule.SetTaskModule(taskModule)

	if err := app.Register(taskModule); err != nil {
		log.Fatalf("Failed to register task module: %v", err)
	}
	if err := app.Register(apiModule); err != nil {
		log.Fatalf("Failed to register API module: %v", err)
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	printStartupInfo(cfg.HTTPPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// redactURL hides the password of a postgres:// connection string.
func redactURL(databaseURL string) string {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return databaseURL
	}
	// The password may itself contain '@'; the host follows the last one.
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return databaseURL
	}
	userinfo, host := rest[:at], rest[at+1:]
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return databaseURL
	}
	return scheme + "://" + user + ":****@" + host
}

func printStartupInfo(port int) {
	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", port)
	log.Println("Endpoints:")
	log.Println("  GET    /                  - Service status")
	log.Println("  GET    /health            - Health check")
	log.Println("  GET    /tasks             - List tasks")
	log.Println("  POST   /tasks             - Create task")
	log.Println("  GET    /tasks/:id         - Get task")
	log.Println("  PATCH  /tasks/:id         - Update task (merge-patch)")
	log.Println("  PATCH  /tasks/:id/status  - Change status")
	log.Println("  DELETE /tasks/:id         - Delete task")
	log.Println("  GET    /tags              - List tags")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")
}
