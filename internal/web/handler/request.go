package handler

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/tenantcrm/crm-authz/internal/auth"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bind parses the JSON body into v and validates its struct tags.
func Bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", auth.ErrBadRequest, err)
	}

	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrBadRequest, err)
	}

	return nil
}

// ParamID returns the positive integer path parameter name.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", auth.ErrBadRequest, name, c.Params(name))
	}

	return uint(id), nil
}

// IDList is a list of identifiers decoded from a JSON string, number or array of both.
// Entries are kept as text; callers filter out what is not a valid ID.
type IDList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.HasPrefix(data, []byte("[")) {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}

		out := make(IDList, 0, len(raw))
		for _, r := range raw {
			out = append(out, idText(r))
		}

		*l = out

		return nil
	}

	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	*l = IDList{idText(data)}

	return nil
}

func idText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(bytes.TrimSpace(raw))
}
