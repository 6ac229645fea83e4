// Package login provides HTTP handlers for user authentication.
//
// This file defines exported error values used throughout the login flow.
package login

import (
	"fmt"

	"github.com/tenantcrm/crm-authz/internal/auth"
)

// ErrInvalidCredentials is returned when the provided username and/or password
// are not valid. Unknown users and disabled accounts answer the same way.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", auth.ErrUnauthenticated)
