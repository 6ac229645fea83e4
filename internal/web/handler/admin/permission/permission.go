// Package permission provides the JSON API over the permission catalog.
package permission

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	permctrl "github.com/tenantcrm/crm-authz/internal/db/controller/permission"
	"github.com/tenantcrm/crm-authz/internal/db/models"
	"github.com/tenantcrm/crm-authz/internal/web/handler"
)

const (
	// Path is the base path of the catalog.
	Path = "/permissions"
	// ItemPath addresses a single catalog entry.
	ItemPath = Path + "/:id"
)

// Service provides CRUD operations for catalog entries.
type Service struct {
	deps *handler.Deps
}

type createRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	Method       string `json:"method" validate:"omitempty,max=10"`
	Path         string `json:"path" validate:"required,max=255"`
	Description  string `json:"description" validate:"max=255"`
	IsAdminLevel bool   `json:"isAdminLevel"`
}

type updateRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=150"`
	Method       *string `json:"method" validate:"omitempty,max=10"`
	Path         *string `json:"path" validate:"omitempty,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
	IsAdminLevel *bool   `json:"isAdminLevel"`
}

// New creates the permission handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Routes implements handler.Service.
func (s *Service) Routes() []handler.Route {
	return []handler.Route{
		{
			Route:   catalog.Route{Method: fiber.MethodGet, Path: Path, Description: "List the permission catalog"},
			Require: []string{auth.PermPermissionsView},
			Handle:  s.List,
		},
		{
			Route: catalog.Route{
				Method: fiber.MethodPost, Path: Path, Description: "Create a catalog entry", AdminLevel: true,
			},
			Require: []string{auth.PermPermissionsCreate},
			Handle:  s.Create,
		},
		{
			Route:   catalog.Route{Method: fiber.MethodGet, Path: ItemPath, Description: "Read a catalog entry"},
			Require: []string{auth.PermPermissionsView},
			Handle:  s.Get,
		},
		{
			Route: catalog.Route{
				Method: fiber.MethodPut, Path: ItemPath, Description: "Update a catalog entry", AdminLevel: true,
			},
			Require: []string{auth.PermPermissionsUpdate},
			Handle:  s.Update,
		},
		{
			Route: catalog.Route{
				Method: fiber.MethodDelete, Path: ItemPath, Description: "Delete a catalog entry", AdminLevel: true,
			},
			Require: []string{auth.PermPermissionsDelete},
			Handle:  s.Delete,
		},
	}
}

// List returns the catalog, or the entries of one name with ?name=.
func (s *Service) List(c *fiber.Ctx) error {
	var (
		perms []models.Permission
		err   error
	)

	if name := c.Query("name"); name != "" {
		perms, err = permctrl.GetByName(c.UserContext(), s.deps.DB, name)
	} else {
		perms, err = permctrl.List(c.UserContext(), s.deps.DB)
	}

	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(perms)
}

// Get returns one catalog entry.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	p, err := permctrl.Get(c.UserContext(), s.deps.DB, id)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(p)
}

// Create adds a catalog entry by hand.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createRequest
	if err := handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	p := &models.Permission{
		Name:         in.Name,
		Method:       in.Method,
		Path:         in.Path,
		Description:  in.Description,
		IsAdminLevel: in.IsAdminLevel,
	}

	if err := permctrl.Create(c.UserContext(), s.deps.DB, p); err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update edits a catalog entry. Renames change what roles holding it grant.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	var in updateRequest
	if err = handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	p, err := permctrl.Update(c.UserContext(), s.deps.DB, id, permctrl.Changes{
		Name:         in.Name,
		Method:       in.Method,
		Path:         in.Path,
		Description:  in.Description,
		IsAdminLevel: in.IsAdminLevel,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	s.deps.InvalidateCache()

	return c.JSON(p)
}

// Delete removes a catalog entry and its role assignments.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Error(c, err)
	}

	if err = permctrl.Delete(c.UserContext(), s.deps.DB, id); err != nil {
		return handler.Error(c, err)
	}

	s.deps.InvalidateCache()

	return c.SendStatus(fiber.StatusNoContent)
}
