// Package permission provides CRUD operations for the permission catalog.
package permission

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
	keyQueryPattern = "name = ? AND method = ? AND path = ?"

	// insertBatchSize bounds the rows per INSERT of InsertPermissions.
	insertBatchSize = 200
)

var (
	// ErrPermissionNotFound is returned when a permission is not found.
	ErrPermissionNotFound = fmt.Errorf("%w: permission", auth.ErrNotFound)
	// ErrPermissionAlreadyExists is returned when the (name, method, path) key is already taken.
	ErrPermissionAlreadyExists = fmt.Errorf("%w: permission already exists", auth.ErrConflict)
	// ErrInvalidPermission is returned when a permission has a malformed name or unknown action.
	ErrInvalidPermission = fmt.Errorf("%w: invalid permission", auth.ErrBadRequest)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Changes holds the editable attributes of a permission. Nil fields are left untouched.
type Changes struct {
	Name         *string
	Method       *string
	Path         *string
	Description  *string
	IsAdminLevel *bool
}

// Normalize lower-cases name and resource, upper-cases the method, roots the path
// and fills Action and Resource from the name when they are empty.
func Normalize(p *models.Permission) error {
	p.Name = auth.NormalizeName(p.Name)
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
	p.Path = NormalizePath(p.Path)
	p.Resource = strings.ToLower(strings.TrimSpace(p.Resource))
	p.Action = strings.ToLower(strings.TrimSpace(p.Action))

	n, err := auth.ParseName(p.Name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}

	if n.IsWildcard() {
		if p.Resource == "" {
			p.Resource = auth.WildcardName
		}

		if p.Action == "" {
			p.Action = string(auth.ActionManage)
		}
	} else {
		if p.Resource == "" {
			p.Resource = strings.TrimSuffix(n.Resource+":"+n.Qualifier, ":")
		}

		if p.Action == "" {
			p.Action = string(n.Action)
		}
	}

	if !auth.Action(p.Action).Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidPermission, p.Action)
	}

	if p.Method == "" {
		p.Method = auth.WildcardName
	}

	p.IsWildcard = p.IsWildcard || hasWildcardSegment(p.Path)

	return nil
}

// NormalizePath makes sure path starts with a single "/" and has no trailing "/".
func NormalizePath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	return path
}

// Get retrieves a permission by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Permission

	err := db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionNotFound
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetByName retrieves every catalog entry sharing a name (one per method and path).
func GetByName(ctx context.Context, db *gorm.DB, name string) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var perms []models.Permission
	if err := db.WithContext(ctx).Where("name = ?", auth.NormalizeName(name)).
		Order("method ASC, path ASC").Find(&perms).Error; err != nil {
		return nil, err
	}

	return perms, nil
}

// List retrieves the whole catalog ordered by name, method and path.
func List(ctx context.Context, db *gorm.DB) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var perms []models.Permission
	if err := db.WithContext(ctx).Order("name ASC, method ASC, path ASC").Find(&perms).Error; err != nil {
		return nil, err
	}

	return perms, nil
}

// Create normalizes and inserts a permission. A taken (name, method, path) key
// returns ErrPermissionAlreadyExists.
func Create(ctx context.Context, db *gorm.DB, p *models.Permission) error {
	if db == nil {
		return ErrDBNil
	}

	if err := Normalize(p); err != nil {
		return err
	}

	if err := ensureKeyFree(ctx, db, p, 0); err != nil {
		return err
	}

	return duplicate(db.WithContext(ctx).Create(p).Error)
}

// Update applies changes to the permission with the given ID.
func Update(ctx context.Context, db *gorm.DB, id uint, changes Changes) (*models.Permission, error) {
	p, err := Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		p.Name = *changes.Name
		p.Resource, p.Action = "", ""
	}

	if changes.Method != nil {
		p.Method = *changes.Method
	}

	if changes.Path != nil {
		p.Path = *changes.Path
		p.IsWildcard = false
	}

	if changes.Description != nil {
		p.Description = *changes.Description
	}

	if changes.IsAdminLevel != nil {
		p.IsAdminLevel = *changes.IsAdminLevel
	}

	if err := Normalize(p); err != nil {
		return nil, err
	}

	if err := ensureKeyFree(ctx, db, p, p.ID); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, duplicate(err)
	}

	return p, nil
}

// Delete deletes a permission by ID together with its role assignments.
func Delete(ctx context.Context, db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Permission{}, id)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrPermissionNotFound
		}

		return nil
	})
}

// ExistingIDs returns the subset of ids that refer to permissions in the catalog.
func ExistingIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]uint, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if len(ids) == 0 {
		return nil, nil
	}

	var found []uint
	if err := db.WithContext(ctx).Model(&models.Permission{}).
		Where("id IN ?", ids).Order("id ASC").Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	return found, nil
}

// duplicate maps a unique index violation of a concurrent writer to ErrPermissionAlreadyExists.
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPermissionAlreadyExists
	}

	return err
}

func ensureKeyFree(ctx context.Context, db *gorm.DB, p *models.Permission, selfID uint) error {
	var existing models.Permission

	err := db.WithContext(ctx).Where(keyQueryPattern, p.Name, p.Method, p.Path).First(&existing).Error
	if err == nil && existing.ID != selfID {
		return ErrPermissionAlreadyExists
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

func hasWildcardSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == auth.WildcardName {
			return true
		}
	}

	return false
}
