package permission

import (
	"context"

	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// Store exposes the catalog to the permission generator.
type Store struct {
	DB *gorm.DB
}

// ListPermissions returns every persisted catalog entry.
func (s Store) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return List(ctx, s.DB)
}

// InsertPermissions bulk-inserts new catalog entries.
func (s Store) InsertPermissions(ctx context.Context, perms []models.Permission) error {
	if s.DB == nil {
		return ErrDBNil
	}

	if len(perms) == 0 {
		return nil
	}

	return s.DB.WithContext(ctx).CreateInBatches(&perms, insertBatchSize).Error
}

// DeletePermissions bulk-deletes catalog entries and their role assignments.
func (s Store) DeletePermissions(ctx context.Context, perms []models.Permission) error {
	if s.DB == nil {
		return ErrDBNil
	}

	ids := make([]uint, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}

	if len(ids) == 0 {
		return nil
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id IN ?", ids).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).Delete(&models.Permission{}).Error
	})
}
