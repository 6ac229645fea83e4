package config

import (
	"time"

	"github.com/tenantcrm/crm-authz/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration `validate:"gt=0"`
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Authz     Authz
	Generator Generator
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int     `validate:"required,min=1,max=65535"` // listening port for the webserver
	ShutDownTime int     // seconds to wait for open connections on shutdown
	URL          string  `validate:"required"` // base url for the webserver
	CookieSecure bool    // send the session cookie over https only
	Session      Session // session settings
}

// Authz configures the authorization engine.
type Authz struct {
	// OwnerResources are granted to tenant owners with every action.
	OwnerResources []string
	// OwnerBundleFile is a YAML list of further owner resources.
	OwnerBundleFile string
	// CacheSize is the number of cached role sets, 0 disables the cache.
	CacheSize int `validate:"min=0"`
	// CacheTTL bounds how long a cached role set may be stale.
	CacheTTL time.Duration
	// AdminPassword is the password of the super-user seeded into an empty database.
	AdminPassword string
}

// Generator configures the permission catalog generator.
type Generator struct {
	// Prefix is stripped from route paths before permission names are derived.
	Prefix string
	// SnapshotFile receives the JSON snapshot of every run when set.
	SnapshotFile string
}
