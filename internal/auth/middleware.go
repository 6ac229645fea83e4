package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// identityLocalsKey is the fiber.Locals key holding the resolved Identity.
const identityLocalsKey = "identity"

// decisionLocalsKey is the fiber.Locals key holding the Decision of the last Require.
const decisionLocalsKey = "authzDecision"

// ErrorBody is the JSON body of rejected requests.
type ErrorBody struct {
	Error   string   `json:"error"`
	Reason  string   `json:"reason,omitempty"`
	Missing []string `json:"missing,omitempty"`
	// Incident correlates a 500 answer with the server log line.
	Incident string `json:"incident,omitempty"`
}

// SetIdentity stores the authenticated identity of the request.
func SetIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(identityLocalsKey, identity)
}

// IdentityFromContext returns the identity stored by SetIdentity.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityLocalsKey).(Identity)
	return identity, ok
}

// DecisionFromContext returns the decision made by Require for this request.
func DecisionFromContext(c *fiber.Ctx) (Decision, bool) {
	d, ok := c.Locals(decisionLocalsKey).(Decision)
	return d, ok
}

// Require creates Fiber middleware that requires all the given permissions.
// Without permissions it only requires an authenticated identity.
func Require(authorizer Authorizer, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorBody{Error: "unauthorized"})
		}

		decision, err := authorizer.Authorize(c.UserContext(), identity, permissions)
		if err != nil {
			incident := uuid.NewString()

			log.Error().Err(err).Str("incident", incident).Uint64("user_id", identity.UserID).
				Strs("permissions", permissions).Msg("Failed to check permissions")

			return c.Status(StatusCode(err)).JSON(ErrorBody{Error: "internal server error", Incident: incident})
		}

		c.Locals(decisionLocalsKey, decision)

		if !decision.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(ErrorBody{
				Error:   "forbidden",
				Reason:  decision.Reason,
				Missing: decision.Missing,
			})
		}

		return c.Next()
	}
}

// RequireAuthenticated only requires a resolved identity.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorBody{Error: "unauthorized"})
		}

		return c.Next()
	}
}
