// Package web builds the fiber application serving the authorization API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	fiberlog "github.com/tenantcrm/crm-authz/internal/logger/adapter/fiber"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
	"github.com/tenantcrm/crm-authz/internal/web/handler/admin/permission"
	"github.com/tenantcrm/crm-authz/internal/web/handler/admin/role"
	"github.com/tenantcrm/crm-authz/internal/web/handler/admin/user"
	"github.com/tenantcrm/crm-authz/internal/web/handler/login"
	"github.com/tenantcrm/crm-authz/internal/web/handler/logout"
	authmiddleware "github.com/tenantcrm/crm-authz/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 200 while the service takes traffic and 503 while it shuts down.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the web service down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Routes returns the registry of the protected API routes, the input of the permission catalog.
func Routes() []catalog.Route {
	return handler.Catalog(services(&handler.Deps{})...)
}

func services(deps *handler.Deps) []handler.Service {
	return []handler.Service{
		login.New(deps),
		logout.New(deps),
		role.New(deps),
		permission.New(deps),
		user.New(deps),
	}
}

// New creates the web service. deps must carry the config, database, authorizer,
// auth service and session store.
func New(deps *handler.Deps) *Service {
	if deps == nil || deps.Cfg == nil || deps.DB == nil || deps.Engine == nil ||
		deps.Service == nil || deps.Sessions == nil {
		panic("web dependencies cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192, //nolint:mnd
			AppName:        deps.Cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			JSONEncoder:    json.Marshal,
			JSONDecoder:    json.Unmarshal,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: deps.Cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(fiberlog.New(fiberlog.Config{
		Config:        deps.Cfg.Log,
		Fields:        accessLogFields,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(handler.RootPath)
	api.Use(authmiddleware.Identity(deps.Sessions, deps.Service))

	handler.Register(api, deps.Engine, services(deps)...)

	return service
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// accessLogFields adds the identity and the authorization decision to the access log line.
func accessLogFields(c *fiber.Ctx, e *zerolog.Event) {
	if identity, ok := auth.IdentityFromContext(c); ok {
		e.Uint64("user_id", identity.UserID).Uint("tenant_id", identity.TenantID)
	}

	if decision, ok := auth.DecisionFromContext(c); ok {
		e.Str("strategy", string(decision.Strategy)).Bool("allowed", decision.Allowed)
	}
}

// errorHandler answers fiber errors, e.g. unknown routes, as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(auth.ErrorBody{Error: fe.Message})
	}

	return handler.Error(c, err)
}
