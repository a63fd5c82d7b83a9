// Package db contains the relational store used by the auth service
package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"flexgen/auth-api/config"
	"flexgen/auth-api/internal/model"
	"flexgen/auth-api/pkg/util"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database selected by c.Driver and migrates the schema
func New(c config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch c.Driver {
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() && !isMemoryDSN(c.DSN) {
			if _, err := os.Stat(sqliteFile(c.DSN)); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", sqliteFile(c.DSN))
			}
		}

		dsn := c.DSN
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}

		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(c.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", c.Driver, err)
	}

	if c.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// SQLite serializes writers anyway. One connection also keeps
		// in-memory databases alive and shared
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// GormConfig is shared by every dialect. TranslateError turns unique
// violations into gorm.ErrDuplicatedKey on both sqlite and postgres
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			zap.NewStdLog(zap.L()),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.UserPreferences{},
		&model.ScanHistory{},
		&model.UserSession{},
	)
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func sqliteFile(dsn string) string {
	return strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
}
