package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/auth"
)

// Error writes err as JSON with the status of auth.StatusCode.
// Internal errors are logged under an incident ID and their text is not sent to the client.
func Error(c *fiber.Ctx, err error) error {
	status := auth.StatusCode(err)

	if status == fiber.StatusInternalServerError {
		incident := uuid.NewString()

		log.Error().Err(err).Str("incident", incident).Str("method", c.Method()).
			Str("path", c.Path()).Msg("request failed")

		return c.Status(status).JSON(auth.ErrorBody{Error: "internal server error", Incident: incident})
	}

	return c.Status(status).JSON(auth.ErrorBody{Error: err.Error()})
}

// BadRequest writes a 400 answer with msg.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorBody{Error: msg})
}
