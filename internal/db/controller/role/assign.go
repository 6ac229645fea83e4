package role

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/db/controller/permission"
	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// ErrNoValidPermissionIDs is returned when none of the given identifiers refers to a catalog entry.
var ErrNoValidPermissionIDs = fmt.Errorf("%w: no valid permission IDs provided", auth.ErrBadRequest)

// AssignPermissions adds permissions to a role's set.
// Malformed and unknown identifiers are dropped silently; if nothing is left the call fails with
// ErrNoValidPermissionIDs. Already assigned permissions are skipped and, when nothing is new,
// no write happens at all. Rows are inserted with ON CONFLICT DO NOTHING so concurrent
// assignments to the same role commute.
func AssignPermissions(ctx context.Context, db *gorm.DB, tenantID, roleID uint, ids ...string) (*models.Role, error) {
	r, valid, err := resolve(ctx, db, tenantID, roleID, ids)
	if err != nil {
		return nil, err
	}

	current := r.PermissionIDs()

	var added []models.RolePermission

	for _, id := range valid {
		if !slices.Contains(current, id) {
			added = append(added, models.RolePermission{RoleID: r.ID, PermissionID: id})
		}
	}

	if len(added) == 0 {
		return r, nil
	}

	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&added).Error; err != nil {
		return nil, fmt.Errorf("failed to assign permissions: %w", err)
	}

	return Get(ctx, db, tenantID, roleID)
}

// RevokePermissions removes permissions from a role's set. Unknown identifiers are dropped like
// in AssignPermissions.
func RevokePermissions(ctx context.Context, db *gorm.DB, tenantID, roleID uint, ids ...string) (*models.Role, error) {
	r, valid, err := resolve(ctx, db, tenantID, roleID, ids)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN ?", r.ID, valid).
		Delete(&models.RolePermission{}).Error; err != nil {
		return nil, fmt.Errorf("failed to revoke permissions: %w", err)
	}

	return Get(ctx, db, tenantID, roleID)
}

// ParseIDs converts identifiers to unique positive IDs, keeping the first occurrence order.
// Malformed entries are skipped.
func ParseIDs(ids []string) []uint {
	out := make([]uint, 0, len(ids))

	for _, raw := range ids {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
		if err != nil || id == 0 {
			continue
		}

		if !slices.Contains(out, uint(id)) {
			out = append(out, uint(id))
		}
	}

	return out
}

func resolve(ctx context.Context, db *gorm.DB, tenantID, roleID uint, ids []string) (*models.Role, []uint, error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	candidates := ParseIDs(ids)
	if len(candidates) == 0 {
		return nil, nil, ErrNoValidPermissionIDs
	}

	r, err := Get(ctx, db, tenantID, roleID)
	if err != nil {
		return nil, nil, err
	}

	valid, err := permission.ExistingIDs(ctx, db, candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check permission IDs: %w", err)
	}

	if len(valid) == 0 {
		return nil, nil, ErrNoValidPermissionIDs
	}

	return r, valid, nil
}
