package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// Service reads identities and role permissions from the database.
// It implements PermissionSource.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PermissionNames returns the distinct permission names of the given active roles of a tenant.
func (s *Service) PermissionNames(ctx context.Context, tenantID uint, roleIDs []uint) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	var names []string

	err := s.db.WithContext(ctx).Table("permissions").
		Select("DISTINCT permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("roles.id IN ? AND roles.tenant_id = ? AND roles.is_active = ?", roleIDs, tenantID, true).
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}

	return names, nil
}

// Identity resolves the request-time identity of an active user.
// Roles of other tenants are ignored.
func (s *Service) Identity(ctx context.Context, userID uint64) (Identity, error) {
	var user models.User

	err := s.db.WithContext(ctx).Preload("Roles").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrUserNotFound)
	}

	if err != nil {
		return Identity{}, systemError(fmt.Errorf("failed to load user: %w", err))
	}

	if !user.Active {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrUserAccountDisabled)
	}

	identity := Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		IsSuper:  user.IsSuper,
		IsOwner:  user.IsOwner,
	}

	for _, r := range user.Roles {
		if r.TenantID == user.TenantID {
			identity.RoleIDs = append(identity.RoleIDs, r.ID)
		}
	}

	return identity, nil
}

// UserPermissions retrieves the permission names of all roles of a user.
func (s *Service) UserPermissions(ctx context.Context, userID uint64) ([]string, error) {
	identity, err := s.Identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.PermissionNames(ctx, identity.TenantID, identity.RoleIDs)
}

// AssignRoleToUser adds a role of the user's tenant to the user. Assigning twice is a no-op.
func (s *Service) AssignRoleToUser(ctx context.Context, userID uint64, roleID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %w", ErrNotFound, ErrUserNotFound)
			}

			return fmt.Errorf("failed to load user: %w", err)
		}

		var role models.Role
		if err := tx.Where("id = ? AND tenant_id = ?", roleID, user.TenantID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: role %d is not part of tenant %d", ErrBadRequest, roleID, user.TenantID)
			}

			return fmt.Errorf("failed to load role: %w", err)
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error
	})
}
