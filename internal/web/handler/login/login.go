package login

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
	"github.com/tenantcrm/crm-authz/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = "/auth/login"
	// MePath is the path of the current identity endpoint.
	MePath = "/auth/me"
)

// Service is the login handler service.
type Service struct {
	deps  *handler.Deps
	local *auth.LocalProvider
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// Token is the login response body. The token is the session ID and may be sent
// as "Authorization: Bearer <token>" instead of the session cookie.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	UserID    uint64 `json:"userId"`
	TenantID  uint   `json:"tenantId"`
}

// Me is the current identity with its effective permissions.
type Me struct {
	auth.Identity

	Strategy    auth.Strategy `json:"strategy"`
	Permissions []string      `json:"permissions"`
}

// New creates the login handler.
func New(deps *handler.Deps) *Service {
	s := &Service{deps: deps}
	if deps.DB != nil {
		s.local = auth.NewLocalProvider(deps.DB)
	}

	return s
}

// Routes implements handler.Service.
func (s *Service) Routes() []handler.Route {
	return []handler.Route{
		{
			Route:  catalog.Route{Method: fiber.MethodPost, Path: Path, Description: "Log in"},
			Access: handler.Public,
			Handle: s.Post,
		},
		{
			Route:  catalog.Route{Method: fiber.MethodGet, Path: MePath, Description: "Current identity"},
			Access: handler.Authenticated,
			Handle: s.Me,
		},
	}
}

// Post checks the credentials and opens a session.
func (s *Service) Post(c *fiber.Ctx) error {
	var in Credentials
	if err := handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	user, err := s.local.Authenticate(c.UserContext(), in.Username, in.Password)

	switch {
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrUserAccountDisabled):
		log.Info().Err(err).Str("username", in.Username).Msg("login rejected")
		return handler.Error(c, ErrInvalidCredentials)
	case err != nil:
		return handler.Error(c, err)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return handler.Error(c, err)
	}

	if err = s.deps.Sessions.Write(sessionID, session.Data{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return handler.Error(c, err)
	}

	expiry := s.deps.Sessions.Expiry()

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(expiry.Seconds()),
		Secure:   s.deps.Cfg.Webserver.CookieSecure && !s.deps.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Uint64("user_id", user.ID).Uint("tenant_id", user.TenantID).Msg("user logged in")

	return c.JSON(Token{
		Token:     sessionID,
		ExpiresIn: int(expiry.Seconds()),
		UserID:    user.ID,
		TenantID:  user.TenantID,
	})
}

// Me returns the identity of the request and the permissions of its roles.
func (s *Service) Me(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)

	perms, err := s.deps.Service.PermissionNames(c.UserContext(), identity.TenantID, identity.RoleIDs)
	if err != nil {
		return handler.Error(c, err)
	}

	if perms == nil {
		perms = []string{}
	}

	return c.JSON(Me{Identity: identity, Strategy: identity.Strategy(), Permissions: perms})
}
