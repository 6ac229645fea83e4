// Package db opens the gorm connection of the configured engine.
package db

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantcrm/crm-authz/internal/config"
	"github.com/tenantcrm/crm-authz/internal/db/dsn"
)

// Open connects to the database described by cfg. In dev mode every SQL statement is logged.
func Open(cfg config.DB, devMode bool) (*gorm.DB, error) {
	source, err := dsn.Create(cfg)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case dsn.EngineMySQL:
		dialector = mysql.Open(source)
	case dsn.EnginePostgres:
		dialector = postgres.Open(source)
	default:
		dialector = sqlite.Open(source)
	}

	level := logger.Warn
	if devMode {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// unique index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond, //nolint:mnd
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.Info().Str("engine", cfg.GormEngine).Msg("database connected")

	return db, nil
}
