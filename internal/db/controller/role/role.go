// Package role provides CRUD and permission assignment operations for tenant roles.
package role

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/db/models"
)

const (
	tenantAndIDQueryPattern   = "tenant_id = ? AND id = ?"
	tenantAndNameQueryPattern = "tenant_id = ? AND name = ?"
	preloadPermissions        = "Permissions"
)

var (
	// ErrRoleNotFound is returned when a role is not found in the tenant.
	ErrRoleNotFound = fmt.Errorf("%w: role", auth.ErrNotFound)
	// ErrRoleNameEmpty is returned when attempting to create/update a role with an empty name.
	ErrRoleNameEmpty = fmt.Errorf("%w: role name cannot be empty", auth.ErrBadRequest)
	// ErrRoleAlreadyExists is returned when the tenant already has a role with the same name.
	ErrRoleAlreadyExists = fmt.Errorf("%w: role already exists", auth.ErrConflict)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Changes holds the editable attributes of a role. Nil fields are left untouched.
type Changes struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// Get retrieves a role of a tenant with its permissions.
func Get(ctx context.Context, db *gorm.DB, tenantID, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role

	err := db.WithContext(ctx).Preload(preloadPermissions).
		Where(tenantAndIDQueryPattern, tenantID, id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, err
	}

	return &r, nil
}

// List retrieves all roles of a tenant ordered by name.
func List(ctx context.Context, db *gorm.DB, tenantID uint) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	if err := db.WithContext(ctx).Preload(preloadPermissions).
		Where("tenant_id = ?", tenantID).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}

	return roles, nil
}

// Create inserts a new role. Names are unique per tenant.
func Create(ctx context.Context, db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	if err := ensureNameFree(ctx, db, r.TenantID, r.Name, 0); err != nil {
		return err
	}

	// permissions are attached through AssignPermissions only
	perms := r.Permissions
	r.Permissions = nil

	if err := db.WithContext(ctx).Omit(preloadPermissions).Create(r).Error; err != nil {
		r.Permissions = perms
		return duplicate(err)
	}

	return nil
}

// Update applies changes to a role of a tenant.
func Update(ctx context.Context, db *gorm.DB, tenantID, id uint, changes Changes) (*models.Role, error) {
	r, err := Get(ctx, db, tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, ErrRoleNameEmpty
		}

		if err := ensureNameFree(ctx, db, tenantID, name, r.ID); err != nil {
			return nil, err
		}

		updates["name"] = name
	}

	if changes.Description != nil {
		updates["description"] = *changes.Description
	}

	if changes.IsActive != nil {
		updates["is_active"] = *changes.IsActive
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(r).Updates(updates).Error; err != nil {
			return nil, duplicate(err)
		}
	}

	return Get(ctx, db, tenantID, id)
}

// Delete deletes a role of a tenant with its permission and user assignments.
func Delete(ctx context.Context, db *gorm.DB, tenantID, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(tenantAndIDQueryPattern, tenantID, id).Delete(&models.Role{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrRoleNotFound
		}

		return deleteAssignments(tx, []uint{id})
	})
}

// DeleteByTenant deletes every role of a tenant and returns how many were removed.
func DeleteByTenant(ctx context.Context, db *gorm.DB, tenantID uint) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var deleted int64

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Role{}).Where("tenant_id = ?", tenantID).Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		if err := deleteAssignments(tx, ids); err != nil {
			return err
		}

		result := tx.Where("id IN ?", ids).Delete(&models.Role{})
		deleted = result.RowsAffected

		return result.Error
	})

	return deleted, err
}

func deleteAssignments(tx *gorm.DB, roleIDs []uint) error {
	if err := tx.Where("role_id IN ?", roleIDs).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}

	return tx.Where("role_id IN ?", roleIDs).Delete(&models.UserRole{}).Error
}

// duplicate maps a unique index violation of a concurrent writer to ErrRoleAlreadyExists.
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRoleAlreadyExists
	}

	return err
}

func ensureNameFree(ctx context.Context, db *gorm.DB, tenantID uint, name string, selfID uint) error {
	var existing models.Role

	err := db.WithContext(ctx).Where(tenantAndNameQueryPattern, tenantID, name).First(&existing).Error
	if err == nil && existing.ID != selfID {
		return ErrRoleAlreadyExists
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}
