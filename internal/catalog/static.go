package catalog

import (
	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// StaticPermissions returns the permissions that no route derives, such as the "*" override.
func StaticPermissions() []models.Permission {
	return []models.Permission{
		{
			Name:         auth.WildcardName,
			Method:       auth.WildcardName,
			Path:         "/*",
			Description:  "Grants every permission",
			IsAdminLevel: true,
		},
		{
			Name:         auth.PermPermissionsManage,
			Method:       auth.WildcardName,
			Path:         "/permissions",
			Description:  "Administer the permission catalog",
			IsAdminLevel: true,
		},
		{
			Name:         auth.PermRolesAssign,
			Method:       auth.WildcardName,
			Path:         "/roles",
			Description:  "Hand out roles to users of the tenant",
			IsAdminLevel: true,
		},
		{Name: auth.PermRolesExport, Method: auth.WildcardName, Path: "/roles", Description: "Export role definitions"},
		{Name: auth.PermRolesImport, Method: auth.WildcardName, Path: "/roles", Description: "Import role definitions"},
		{Name: auth.PermRolesApprove, Method: auth.WildcardName, Path: "/roles", Description: "Approve role changes"},
	}
}
