// Package handler holds the route registry shared by the API handlers.
// Each handler declares its routes once; the same declarations register the fiber handlers
// and feed the permission catalog generator.
package handler

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	"github.com/tenantcrm/crm-authz/internal/config"
	"github.com/tenantcrm/crm-authz/internal/web/session"
)

// Deps are the shared dependencies of the API handlers.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Engine   auth.Authorizer
	Service  *auth.Service
	Sessions *session.Store
	// Invalidate drops cached role permissions after role or assignment changes. May be nil.
	Invalidate func()
}

// InvalidateCache calls Deps.Invalidate when set.
func (d *Deps) InvalidateCache() {
	if d.Invalidate != nil {
		d.Invalidate()
	}
}

// Access is the authentication level of a route.
type Access int

const (
	// Protected routes require the permissions of Route.Require.
	Protected Access = iota
	// Authenticated routes only require a logged in identity.
	Authenticated
	// Public routes are reachable anonymously.
	Public
)

// Route binds a registry entry to its handler.
type Route struct {
	catalog.Route

	Access Access
	// Require lists the permission names checked by auth.Require for Protected routes.
	Require []string
	Handle  fiber.Handler
}

// Service is the interface for a web handler service.
type Service interface {
	Routes() []Route
}

// Register mounts the routes of services on router with their access checks.
func Register(router fiber.Router, authorizer auth.Authorizer, services ...Service) {
	for _, s := range services {
		for _, r := range s.Routes() {
			var guard fiber.Handler

			switch r.Access {
			case Public:
				guard = nil
			case Authenticated:
				guard = auth.RequireAuthenticated()
			default:
				guard = auth.Require(authorizer, r.Require...)
			}

			for _, method := range r.AllMethods() {
				if guard == nil {
					router.Add(method, r.Path, r.Handle)
					continue
				}

				router.Add(method, r.Path, guard, r.Handle)
			}
		}
	}
}

// Catalog returns the registry entries of the protected routes of services,
// with their paths below RootPath.
func Catalog(services ...Service) []catalog.Route {
	var out []catalog.Route

	for _, s := range services {
		for _, r := range s.Routes() {
			if r.Access != Protected {
				continue
			}

			cr := r.Route
			cr.Path = RootPath + r.Path
			cr.Methods = slices.Clone(r.Methods)
			out = append(out, cr)
		}
	}

	return out
}
