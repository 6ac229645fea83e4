// Package logout provides the HTTP handler closing a session.
package logout

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/catalog"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
	"github.com/tenantcrm/crm-authz/internal/web/session"
)

// Path is the path of the logout endpoint.
const Path = "/auth/logout"

// Service is the logout handler service.
type Service struct {
	deps *handler.Deps
}

// New creates the logout handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Routes implements handler.Service.
func (s *Service) Routes() []handler.Route {
	return []handler.Route{
		{
			Route:  catalog.Route{Method: fiber.MethodPost, Path: Path, Description: "Log out"},
			Access: handler.Public,
			Handle: s.Logout,
		},
	}
}

// Logout handles user logout by deleting the session and clearing the cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.deps.Sessions.Delete(session.FromRequest(c)); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.deps.Cfg.Webserver.CookieSecure && !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.SendStatus(fiber.StatusNoContent)
}
