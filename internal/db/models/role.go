package models

import "time"

// Role represents a tenant-scoped, named bundle of permissions.
// Names are unique within a tenant, not globally.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// TenantID is the tenant owning this role.
	TenantID uint `gorm:"not null;uniqueIndex:idx_role_tenant_name,priority:1" json:"tenantId"`
	// UserID is the ID of the user that created the role.
	UserID uint64 `gorm:"not null" json:"userId"`
	// Name is the name of the role, unique per tenant (e.g., "sales-manager").
	Name string `gorm:"size:100;not null;uniqueIndex:idx_role_tenant_name,priority:2" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// IsActive indicates whether the role currently grants its permissions.
	IsActive bool `gorm:"not null;default:true" json:"isActive"`
	// Permissions is the deduplicated set of permissions granted by this role.
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE" json:"permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// PermissionIDs returns the IDs of the role's loaded permissions.
func (r *Role) PermissionIDs() []uint {
	ids := make([]uint, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		ids = append(ids, p.ID)
	}

	return ids
}
