// Package daemon assembles the long running authorization service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/config"
	"github.com/tenantcrm/crm-authz/internal/db"
	"github.com/tenantcrm/crm-authz/internal/db/dsn"
	"github.com/tenantcrm/crm-authz/internal/db/models"
	"github.com/tenantcrm/crm-authz/internal/web"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
	"github.com/tenantcrm/crm-authz/internal/web/session"
)

// sessionTable holds the sessions in the mysql and postgres storages.
const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	storage    fiber.Storage
	webService *web.Service
}

// Start serves the API until SIGINT or SIGTERM and releases the storages afterwards.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(net.JoinHostPort("", strconv.Itoa(d.cfg.Webserver.Port)))

	if d.storage != nil {
		if errClose := d.storage.Close(); errClose != nil {
			log.Error().Err(errClose).Msg("failed to close session storage")
		}
	}

	if sqlDB, errDB := d.db.DB(); errDB == nil {
		_ = sqlDB.Close()
	}

	return err
}

// New creates a Daemon: it opens and migrates the database, seeds the permission catalog
// and the first super-user and builds the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	gdb, err := db.Open(cfg.DB, cfg.DevMode)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = models.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err = seed(ctx, cfg, gdb); err != nil {
		return nil, err
	}

	storage, err := sessionStorage(cfg.DB)
	if err != nil {
		return nil, err
	}

	owners, err := auth.LoadOwnerBundle(cfg.Authz.OwnerBundleFile, cfg.Authz.OwnerResources...)
	if err != nil {
		return nil, err
	}

	log.Info().Strs("resources", owners.Resources()).Msg("owner bundle loaded")

	service := auth.NewService(gdb)
	cached := auth.NewCachedSource(service, cfg.Authz.CacheSize, cfg.Authz.CacheTTL)

	return &Daemon{
		cfg:     cfg,
		db:      gdb,
		storage: storage,
		webService: web.New(&handler.Deps{
			Cfg:        cfg,
			DB:         gdb,
			Engine:     auth.NewEngine(cached, owners),
			Service:    service,
			Sessions:   session.New(storage, cfg.Webserver.Session.ExpiryTime),
			Invalidate: cached.Invalidate,
		}),
	}, nil
}

// sessionStorage returns the session backend of the database engine.
// SQLite keeps sessions in memory.
func sessionStorage(cfg config.DB) (fiber.Storage, error) {
	switch cfg.GormEngine {
	case dsn.EngineMySQL, dsn.EnginePostgres:
	default:
		log.Warn().Str("engine", cfg.GormEngine).Msg("sessions are kept in memory and lost on restart")
		return nil, nil
	}

	uri, err := dsn.Create(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.GormEngine == dsn.EngineMySQL {
		return sessionmysql.New(sessionmysql.Config{ConnectionURI: uri, Table: sessionTable}), nil
	}

	return sessionpostgres.New(sessionpostgres.Config{ConnectionURI: uri, Table: sessionTable}), nil
}
