// Package user provides handlers for creating users and assigning them roles.
package user

import (
	"errors"
	"fmt"

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
	// Path is the base path for user management.
	Path = "/users"
	// RolesPath addresses the roles of a user.
	RolesPath = Path + "/:id/roles"
	// PermissionsPath addresses the effective role permissions of a user.
	PermissionsPath = Path + "/:id/permissions"
)

// ErrUserNotInTenant is returned for users outside the caller's tenant. It answers like a missing user.
var ErrUserNotInTenant = fmt.Errorf("%w: user", auth.ErrNotFound)

// ErrOwnerGrantNotAllowed is returned when a role-bound caller tries to create an owner account.
var ErrOwnerGrantNotAllowed = fmt.Errorf("%w: only super-users and owners may create owner accounts", auth.ErrForbidden)

// Service provides user administration.
type Service struct {
	deps *handler.Deps
}

type createRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	IsOwner  bool   `json:"isOwner"`
	// TenantID is honoured for super-users only, everyone else creates users in their own tenant.
	TenantID uint `json:"tenantId"`
}

type rolesRequest struct {
	RoleIDs handler.IDList `json:"roleIds"`
}

// New creates the user handler.
func New(deps *handler.Deps) *Service {
	return &Service{deps: deps}
}

// Routes implements handler.Service.
func (s *Service) Routes() []handler.Route {
	return []handler.Route{
		{
			Route:   catalog.Route{Method: fiber.MethodPost, Path: Path, Description: "Create a user", AdminLevel: true},
			Require: []string{auth.PermUsersCreate},
			Handle:  s.Create,
		},
		{
			Route: catalog.Route{
				Method: fiber.MethodPost, Path: RolesPath, Description: "Assign roles to a user", AdminLevel: true,
			},
			Require: []string{auth.PermUsersRolesCreate},
			Handle:  s.AssignRoles,
		},
		{
			Route: catalog.Route{
				Method: fiber.MethodGet, Path: PermissionsPath, Description: "Effective role permissions of a user",
			},
			Require: []string{auth.PermUsersPermissionsView},
			Handle:  s.Permissions,
		},
	}
}

// Create creates an active local user.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createRequest
	if err := handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	identity, _ := auth.IdentityFromContext(c)

	// owners bypass role checks, so only identities outside the role strategy may mint them
	if in.IsOwner && identity.Strategy() == auth.StrategyRole {
		log.Warn().Uint64("user_id", identity.UserID).Uint("tenant_id", identity.TenantID).
			Msg("owner account creation refused")

		return handler.Error(c, ErrOwnerGrantNotAllowed)
	}

	tenantID := identity.TenantID
	if identity.IsSuper && in.TenantID != 0 {
		tenantID = in.TenantID
	}

	user, err := auth.NewLocalProvider(s.deps.DB).CreateUser(c.UserContext(), auth.NewUser{
		TenantID: tenantID,
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		IsOwner:  in.IsOwner,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	log.Info().Uint64("user_id", user.ID).Uint("tenant_id", user.TenantID).
		Uint64("created_by", identity.UserID).Msg("user created")

	return c.Status(fiber.StatusCreated).JSON(user)
}

// AssignRoles adds roles of the user's tenant to the user.
func (s *Service) AssignRoles(c *fiber.Ctx) error {
	user, err := s.load(c)
	if err != nil {
		return handler.Error(c, err)
	}

	var in rolesRequest
	if err = handler.Bind(c, &in); err != nil {
		return handler.Error(c, err)
	}

	roleIDs := rolectrl.ParseIDs(in.RoleIDs)
	if len(roleIDs) == 0 {
		return handler.BadRequest(c, "no valid role IDs provided")
	}

	for _, roleID := range roleIDs {
		if err = s.deps.Service.AssignRoleToUser(c.UserContext(), user.ID, roleID); err != nil {
			return handler.Error(c, err)
		}
	}

	if err = s.deps.DB.WithContext(c.UserContext()).Preload("Roles").First(user, user.ID).Error; err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(user)
}

// Permissions returns the names granted to a user by the user's roles.
func (s *Service) Permissions(c *fiber.Ctx) error {
	user, err := s.load(c)
	if err != nil {
		return handler.Error(c, err)
	}

	perms, err := s.deps.Service.UserPermissions(c.UserContext(), user.ID)
	if err != nil {
		return handler.Error(c, err)
	}

	if perms == nil {
		perms = []string{}
	}

	return c.JSON(fiber.Map{"userId": user.ID, "permissions": perms})
}

// load returns the user of the :id parameter when the caller may manage it.
func (s *Service) load(c *fiber.Ctx) (*models.User, error) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return nil, err
	}

	var user models.User

	err = s.deps.DB.WithContext(c.UserContext()).First(&user, uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotInTenant
	}

	if err != nil {
		return nil, err
	}

	identity, _ := auth.IdentityFromContext(c)
	if !identity.IsSuper && user.TenantID != identity.TenantID {
		return nil, ErrUserNotInTenant
	}

	return &user, nil
}
