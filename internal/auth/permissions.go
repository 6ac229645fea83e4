package auth

// Permission constants declared by the API routes.
// The catalog generator derives the same names from the route registry,
// so each constant has a matching catalog entry.
const (
	// PermRolesView allows listing and reading the roles of the tenant.
	PermRolesView = "view:roles"
	// PermRolesCreate allows creating roles.
	PermRolesCreate = "create:roles"
	// PermRolesUpdate allows editing a role's name, description and state.
	PermRolesUpdate = "update:roles"
	// PermRolesDelete allows deleting roles.
	PermRolesDelete = "delete:roles"
	// PermRolesPermissionsCreate allows assigning permissions to a role.
	PermRolesPermissionsCreate = "create:roles:permissions"
	// PermRolesPermissionsDelete allows revoking permissions from a role.
	PermRolesPermissionsDelete = "delete:roles:permissions"

	// PermPermissionsView allows reading the permission catalog.
	PermPermissionsView = "view:permissions"
	// PermPermissionsCreate allows creating catalog entries manually.
	PermPermissionsCreate = "create:permissions"
	// PermPermissionsUpdate allows editing catalog entries.
	PermPermissionsUpdate = "update:permissions"
	// PermPermissionsDelete allows deleting catalog entries.
	PermPermissionsDelete = "delete:permissions"

	// PermUsersCreate allows creating users in the tenant.
	PermUsersCreate = "create:users"
	// PermUsersRolesCreate allows assigning roles to users.
	PermUsersRolesCreate = "create:users:roles"
	// PermUsersPermissionsView allows reading the effective role permissions of users.
	PermUsersPermissionsView = "view:users:permissions"

	// PermPermissionsManage is the administrative super-action over the catalog.
	PermPermissionsManage = "manage:permissions"
	// PermRolesAssign allows handing out roles across the tenant.
	PermRolesAssign = "assign:roles"
	// PermRolesExport allows exporting role definitions.
	PermRolesExport = "export:roles"
	// PermRolesImport allows importing role definitions.
	PermRolesImport = "import:roles"
	// PermRolesApprove allows approving pending role changes.
	PermRolesApprove = "approve:roles"
)
