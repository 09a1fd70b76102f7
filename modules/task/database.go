package task

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens the store named by a connection string.
// postgres:// and postgresql:// URLs select PostgreSQL; anything else is a
// SQLite file path, optionally prefixed with sqlite:// or sqlite:///.
func OpenDatabase(databaseURL string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialectorFor(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func dialectorFor(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL)
	}
	return sqlite.Open(sqliteDSN(databaseURL))
}

// sqliteDSN strips any URL scheme and turns on foreign keys and a busy timeout.
func sqliteDSN(databaseURL string) string {
	path := databaseURL
	switch {
	case strings.HasPrefix(path, "sqlite:///"):
		path = strings.TrimPrefix(path, "sqlite:///")
	case strings.HasPrefix(path, "sqlite://"):
		path = strings.TrimPrefix(path, "sqlite://")
	}
	if path == "" {
		path = "jarvis.db"
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
