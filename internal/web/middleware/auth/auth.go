package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
	"github.com/tenantcrm/crm-authz/internal/web/session"
)

// IdentityResolver loads the identity of a user.
type IdentityResolver interface {
	Identity(ctx context.Context, userID uint64) (auth.Identity, error)
}

// Identity is a Fiber middleware that attaches the identity of the session owner to the request.
func Identity(sessions *session.Store, resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := session.FromRequest(c)
		if sessionID == "" {
			return c.Next()
		}

		data, err := sessions.Read(sessionID)
		if errors.Is(err, session.ErrSessionNotFound) {
			return c.Next()
		}

		if err != nil {
			return handler.Error(c, err)
		}

		identity, err := resolver.Identity(c.UserContext(), data.UserID)
		if errors.Is(err, auth.ErrUnauthenticated) {
			log.Debug().Err(err).Uint64("user_id", data.UserID).Msg("dropping session of unusable account")

			if errDelete := sessions.Delete(sessionID); errDelete != nil {
				log.Error().Err(errDelete).Msg("failed to delete session")
			}

			return c.Next()
		}

		if err != nil {
			return handler.Error(c, err)
		}

		// a user moved to another tenant has to log in again
		if identity.TenantID != data.TenantID {
			return c.Next()
		}

		auth.SetIdentity(c, identity)

		return c.Next()
	}
}

// CurrentUserID returns the user ID of the request identity, zero for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint64 {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return 0
	}

	return identity.UserID
}
