package auth

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareApp(authorizer Authorizer, identity *Identity, permissions ...string) *fiber.App {
	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		if identity != nil {
			SetIdentity(c, *identity)
		}

		return c.Next()
	})

	app.Get("/protected", Require(authorizer, permissions...), func(c *fiber.Ctx) error {
		d, ok := DecisionFromContext(c)
		if !ok || !d.Allowed {
			return c.SendStatus(fiber.StatusTeapot)
		}

		return c.SendString("ok")
	})

	app.Get("/me", RequireAuthenticated(), func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.JSON(identity)
	})

	return app
}

func decodeBody(t *testing.T, body io.Reader) ErrorBody {
	t.Helper()

	var out ErrorBody
	require.NoError(t, json.NewDecoder(body).Decode(&out))

	return out
}

func TestRequire(t *testing.T) {
	engine := newTestEngine(&fakeSource{roles: map[uint][]string{1: {"view:roles"}}})

	t.Run("anonymous", func(t *testing.T) {
		app := newMiddlewareApp(engine, nil, "view:roles")

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "unauthorized", decodeBody(t, resp.Body).Error)
	})

	t.Run("allowed", func(t *testing.T) {
		app := newMiddlewareApp(engine, &Identity{UserID: 3, RoleIDs: []uint{1}}, "view:roles")

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("denied", func(t *testing.T) {
		app := newMiddlewareApp(engine, &Identity{UserID: 3, RoleIDs: []uint{1}}, "view:roles", "delete:roles")

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		body := decodeBody(t, resp.Body)
		assert.Equal(t, "forbidden", body.Error)
		assert.Equal(t, "missing required permission: delete:roles", body.Reason)
		assert.Equal(t, []string{"delete:roles"}, body.Missing)
	})

	t.Run("system error", func(t *testing.T) {
		broken := newTestEngine(&fakeSource{err: errors.New("database is locked")})
		app := newMiddlewareApp(broken, &Identity{UserID: 3, RoleIDs: []uint{1}}, "view:roles")

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		body := decodeBody(t, resp.Body)
		assert.Equal(t, "internal server error", body.Error)
		assert.NotEmpty(t, body.Incident)
		assert.Empty(t, body.Missing)
	})
}

func TestRequireAuthenticated(t *testing.T) {
	engine := newTestEngine(&fakeSource{})

	resp, err := newMiddlewareApp(engine, nil).Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = newMiddlewareApp(engine, &Identity{UserID: 9, TenantID: 4}).
		Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var identity Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	assert.Equal(t, uint64(9), identity.UserID)
	assert.Equal(t, uint(4), identity.TenantID)
}
