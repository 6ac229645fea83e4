package models

import "time"

// Permission represents a named, addressable capability in the authorization system.
// Most permissions are derived from the HTTP route registry by the catalog generator;
// a few are declared statically (for example the "*" wildcard).
// The triple (Name, Method, Path) is unique within the catalog.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the canonical identifier in action:resource format (e.g., "view:roles"), or "*".
	Name string `gorm:"size:150;not null;uniqueIndex:idx_permission_key,priority:1" json:"name"`
	// Resource is the noun being protected (e.g., "roles", "roles:permissions", "*").
	Resource string `gorm:"size:150;not null" json:"resource"`
	// Action is the verb allowed on the resource (view, create, update, delete, manage, ...).
	Action string `gorm:"size:20;not null" json:"action"`
	// Method is the originating HTTP verb in upper case, "*" for static permissions.
	Method string `gorm:"size:10;not null;uniqueIndex:idx_permission_key,priority:2" json:"method"`
	// Path is the originating route path, always starting with "/".
	Path string `gorm:"size:255;not null;uniqueIndex:idx_permission_key,priority:3" json:"path"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// IsWildcard is true when the path contains a wildcard segment.
	IsWildcard bool `gorm:"default:false" json:"isWildcard"`
	// IsAdminLevel marks permissions reserved for tenant administration.
	IsAdminLevel bool `gorm:"default:false" json:"isAdminLevel"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}

// Key returns the composite catalog key (name, method, path) joined by spaces.
func (p *Permission) Key() string {
	return p.Name + " " + p.Method + " " + p.Path
}
