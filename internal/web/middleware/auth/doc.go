// Package auth provides the identity middleware of the API.
//
// The middleware reads the session ID from the "session" cookie or an
// "Authorization: Bearer" header, loads the session and resolves the user's
// request-time identity. The identity is stored with auth.SetIdentity for the
// permission checks registered on each route.
//
// Requests without a valid session continue anonymously; the route guards
// answer 401 where an identity is needed. A store failure while resolving the
// identity answers 500 and never falls back to anonymous.
//
// Usage:
//
//	app.Use(authmiddleware.Identity(sessions, authService))
package auth
