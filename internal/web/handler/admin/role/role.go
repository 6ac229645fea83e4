// Package role provides the JSON API managing the roles of a tenant and their permissions.
package role

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	rolectrl "github.com/tenantcrm/crm-authz/internal/db/controller/role"
	"github.com/tenantcrm/crm-authz/internal/db/models"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
)

const (
	// Path is the base path for role management.
	Path = "/roles"
	// ItemPath addresses a single role.
	ItemPath = Path + "/:id"
	// PermissionsPath addresses the permission set of a role.
	PermissionsPath = ItemPath + "/permissions"

	resourceName = "roles"
)

// Service provides CRUD operations for roles.
type Service struct {
	deps *handler.Deps
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	IsActive    *bool  `json:"isActive"`
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"isActive"`
}

type permissionsRequest struct {
	PermissionIDs handler.IDList `json:"permissionIds"`
}

// New creates the role handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Routes implements handler.Service.
func (s *Service) Routes() []handler.Route {
	return []handler.Route{
		{
			Route:   catalog.Route{Resource: resourceName, Method: fiber.MethodGet, Path: Path, Description: "List roles"},
			Require: []string{auth.PermRolesView},
			Handle:  s.List,
		},
		{
			Route:   catalog.Route{Resource: resourceName, Method: fiber.MethodPost, Path: Path, Description: "Create a role"},
			Require: []string{auth.PermRolesCreate},
			Handle:  s.Create,
		},
		{
			Route:   catalog.Route{Resource: resourceName, Method: fiber.MethodGet, Path: ItemPath, Description: "Read a role"},
			Require: []string{auth.PermRolesView},
			Handle:  s.Get,
		},
		{
			Route: catalog.Route{
				Resource: resourceName, Method: fiber.MethodPut, Methods: []string{fiber.MethodPatch},
				Path: ItemPath, Description: "Update a role",
			},
			Require: []string{auth.PermRolesUpdate},
			Handle:  s.Update,
		},
		{
			Route: catalog.Route{
				Resource: resourceName, Method: fiber.MethodDelete, Path: ItemPath,
				Description: "Delete a role", AdminLevel: true,
			},
			Require: []string{auth.PermRolesDelete},
			Handle:  s.Delete,
		},
		{
			Route: catalog.Route{
				Resource: resourceName, Method: fiber.MethodPost, Path: PermissionsPath,
				Description: "Assign permissions to a role", AdminLevel: true,
			},
			Require: []string{auth.PermRolesPermissionsCreate},
			Handle:  s.AssignPermissions,
		},
		{
			Route: catalog.Route{
				Resource: resourceName, Method: fiber.MethodDelete, Path: PermissionsPath,
				Description: "Revoke permissions from a role", AdminLevel: true,
			},
			Require: []string{auth.PermRolesPermissionsDelete},
			Handle:  s.RevokePermissions,
		},
	}
}

// List returns the roles of the caller's tenant.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := rolectrl.List(c.UserContext(), s.deps.DB, tenantOf(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(roles)
}

// Get returns one role with its permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	r, err := rolectrl.Get(c.UserContext(), s.deps.DB, tenantOf(c), id)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(r)
}

// Create creates a role in the caller's tenant. New roles have no permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createRequest
	if err := handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	identity, _ := auth.IdentityFromContext(c)

	r := &models.Role{
		TenantID:    identity.TenantID,
		UserID:      identity.UserID,
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
	}

	if err := rolectrl.Create(c.UserContext(), s.deps.DB, r); err != nil {
		return handler.Error(c, err)
	}

	// gorm skips zero values with a column default on insert
	if in.IsActive != nil && !*in.IsActive {
		updated, err := rolectrl.Update(c.UserContext(), s.deps.DB, r.TenantID, r.ID, rolectrl.Changes{IsActive: in.IsActive})
		if err != nil {
			return handler.Error(c, err)
		}

		r = updated
	}

	log.Info().Uint("role_id", r.ID).Uint("tenant_id", r.TenantID).Uint64("user_id", identity.UserID).
		Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(r)
}

// Update edits name, description and state of a role.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	var in updateRequest
	if err = handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	r, err := rolectrl.Update(c.UserContext(), s.deps.DB, tenantOf(c), id, rolectrl.Changes{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	if in.IsActive != nil {
		s.deps.InvalidateCache()
	}

	return c.JSON(r)
}

// Delete deletes a role with its assignments.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	if err = rolectrl.Delete(c.UserContext(), s.deps.DB, tenantOf(c), id); err != nil {
		return handler.Error(c, err)
	}

	s.deps.InvalidateCache()

	return c.SendStatus(fiber.StatusNoContent)
}

// AssignPermissions adds permissions to the role's set and returns the updated role.
func (s *Service) AssignPermissions(c *fiber.Ctx) error {
	return s.changePermissions(c, rolectrl.AssignPermissions)
}

// RevokePermissions removes permissions from the role's set and returns the updated role.
func (s *Service) RevokePermissions(c *fiber.Ctx) error {
	return s.changePermissions(c, rolectrl.RevokePermissions)
}

type permissionChange func(ctx context.Context, db *gorm.DB, tenantID, roleID uint, ids ...string) (*models.Role, error)

func (s *Service) changePermissions(c *fiber.Ctx, change permissionChange) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	var in permissionsRequest
	if err = handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	r, err := change(c.UserContext(), s.deps.DB, tenantOf(c), id, in.PermissionIDs...)
	if err != nil {
		return handler.Error(c, err)
	}

	s.deps.InvalidateCache()

	return c.JSON(r)
}

func tenantOf(c *fiber.Ctx) uint {
	identity, _ := auth.IdentityFromContext(c)
	return identity.TenantID
}
