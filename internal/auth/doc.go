// Package auth provides the authorization decision engine of the CRM backend.
//
// Every protected route declares a fixed list of permission names in
// "<action>:<resource>" form (for example "create:roles"). At request time
// the Engine evaluates them against the authenticated Identity using exactly
// one of three strategies, in priority order:
//
//   - super-user: always allowed
//   - owner: allowed when every required resource is part of the OwnerBundle,
//     whatever the action
//   - role: allowed when the union of the permissions of the identity's roles
//     holds every required name, or holds the "*" wildcard
//
// A denial carries the missing names. A failure to load role permissions is
// returned as an error wrapping ErrSystem and must not be mistaken for a
// denial; StatusCode maps both to HTTP status codes.
//
// Role permissions are read by Service through gorm and can be memoized with
// CachedSource.
//
// Example usage:
//
//	owners, err := auth.LoadOwnerBundle(cfg.Authz.OwnerBundleFile, cfg.Authz.OwnerResources...)
//	source := auth.NewCachedSource(auth.NewService(db), cfg.Authz.CacheSize, cfg.Authz.CacheTTL)
//	engine := auth.NewEngine(source, owners)
//
//	app.Post("/api/roles", auth.Require(engine, auth.PermRolesCreate), handler)
package auth
