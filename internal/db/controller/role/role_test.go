package role

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// setupTestDB creates a file backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "roles.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to create test database")

	// serialize writers, SQLite allows a single one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db), "failed to migrate test database")

	return db
}

// seedPermissions inserts catalog entries and returns them with their IDs.
func seedPermissions(t *testing.T, db *gorm.DB, names ...string) []models.Permission {
	t.Helper()

	perms := make([]models.Permission, 0, len(names))

	for i, name := range names {
		p := models.Permission{
			Name:     name,
			Resource: "test",
			Action:   "view",
			Method:   "GET",
			Path:     "/test/" + strconv.Itoa(i),
		}
		require.NoError(t, db.Create(&p).Error, "failed to seed permission")

		perms = append(perms, p)
	}

	return perms
}

func seedRole(t *testing.T, db *gorm.DB, tenantID uint, name string) *models.Role {
	t.Helper()

	r := &models.Role{TenantID: tenantID, UserID: 1, Name: name}
	require.NoError(t, Create(context.Background(), db, r))

	return r
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		role          models.Role
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			role:          models.Role{TenantID: 1, Name: "sales"},
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			role:          models.Role{TenantID: 1, Name: "   "},
			expectedError: ErrRoleNameEmpty,
		},
		{
			name:    "successful create",
			dbParam: db,
			role:    models.Role{TenantID: 1, Name: " sales "},
		},
		{
			name:          "duplicate in tenant",
			dbParam:       db,
			role:          models.Role{TenantID: 1, Name: "sales"},
			expectedError: ErrRoleAlreadyExists,
		},
		{
			name:    "same name in other tenant",
			dbParam: db,
			role:    models.Role{TenantID: 2, Name: "sales"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.role

			err := Create(ctx, tc.dbParam, &r)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, r.ID)
			assert.Equal(t, "sales", r.Name)
			assert.True(t, r.IsActive)
		})
	}

	assert.Equal(t, 409, auth.StatusCode(ErrRoleAlreadyExists))
}

func TestCreateConcurrentDuplicate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	insertBeforeCreate(t, db, "roles",
		"INSERT INTO roles (tenant_id, user_id, name, description, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		1, 1, "sales", "", true, now, now)

	err := Create(context.Background(), db, &models.Role{TenantID: 1, UserID: 1, Name: "sales"})
	require.ErrorIs(t, err, ErrRoleAlreadyExists)
	assert.Equal(t, 409, auth.StatusCode(err))
}

// insertBeforeCreate runs stmt inside the transaction of the next create on table,
// after the controller's duplicate check has passed.
func insertBeforeCreate(t *testing.T, db *gorm.DB, table, stmt string, args ...any) {
	t.Helper()

	done := false

	err := db.Callback().Create().Before("gorm:create").After("gorm:begin_transaction").
		Register("test:concurrent_insert", func(tx *gorm.DB) {
			if done || tx.Statement.Table != table {
				return
			}

			done = true

			assert.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec(stmt, args...).Error)
		})
	require.NoError(t, err)
}

func TestGetIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	r := seedRole(t, db, 1, "support")

	got, err := Get(ctx, db, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "support", got.Name)

	_, err = Get(ctx, db, 2, r.ID)
	require.ErrorIs(t, err, ErrRoleNotFound)
	assert.Equal(t, 404, auth.StatusCode(err))
}

func TestListAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	seedRole(t, db, 1, "zeta")
	alpha := seedRole(t, db, 1, "alpha")
	seedRole(t, db, 2, "other")

	roles, err := List(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "alpha", roles[0].Name)
	assert.Equal(t, "zeta", roles[1].Name)

	name := "beta"
	inactive := false
	desc := "renamed"

	updated, err := Update(ctx, db, 1, alpha.ID, Changes{Name: &name, Description: &desc, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "beta", updated.Name)
	assert.Equal(t, "renamed", updated.Description)
	assert.False(t, updated.IsActive)

	taken := "zeta"
	_, err = Update(ctx, db, 1, alpha.ID, Changes{Name: &taken})
	require.ErrorIs(t, err, ErrRoleAlreadyExists)

	empty := ""
	_, err = Update(ctx, db, 1, alpha.ID, Changes{Name: &empty})
	require.ErrorIs(t, err, ErrRoleNameEmpty)
}

func TestDeleteRemovesAssignments(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads")
	r := seedRole(t, db, 1, "sales")

	_, err := AssignPermissions(ctx, db, 1, r.ID, idString(perms[0].ID))
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.UserRole{UserID: 7, RoleID: r.ID}).Error)

	require.ErrorIs(t, Delete(ctx, db, 2, r.ID), ErrRoleNotFound)
	require.NoError(t, Delete(ctx, db, 1, r.ID))

	var joins int64
	require.NoError(t, db.Model(&models.RolePermission{}).Where("role_id = ?", r.ID).Count(&joins).Error)
	assert.Zero(t, joins)

	require.NoError(t, db.Model(&models.UserRole{}).Where("role_id = ?", r.ID).Count(&joins).Error)
	assert.Zero(t, joins)
}

func TestDeleteByTenant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	seedRole(t, db, 1, "a")
	seedRole(t, db, 1, "b")
	kept := seedRole(t, db, 2, "a")

	deleted, err := DeleteByTenant(ctx, db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = Get(ctx, db, 2, kept.ID)
	require.NoError(t, err)

	deleted, err = DeleteByTenant(ctx, db, 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAssignPermissions(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads", "create:leads", "view:deals")

	testCases := []struct {
		name          string
		initial       []int
		ids           func(p []models.Permission) []string
		expectedError error
		expectedNames []string
	}{
		{
			name:    "adds to existing set",
			initial: []int{0},
			ids: func(p []models.Permission) []string {
				return []string{idString(p[1].ID), idString(p[2].ID)}
			},
			expectedNames: []string{"view:leads", "create:leads", "view:deals"},
		},
		{
			name: "drops unknown and malformed ids",
			ids: func(p []models.Permission) []string {
				return []string{"abc", "", "99999", idString(p[2].ID), "-1"}
			},
			expectedNames: []string{"view:deals"},
		},
		{
			name:    "duplicates and already held are no-ops",
			initial: []int{0},
			ids: func(p []models.Permission) []string {
				return []string{idString(p[0].ID), idString(p[0].ID)}
			},
			expectedNames: []string{"view:leads"},
		},
		{
			name: "only unknown ids",
			ids: func(_ []models.Permission) []string {
				return []string{"424242", "x"}
			},
			expectedError: ErrNoValidPermissionIDs,
		},
		{
			name:          "empty list",
			ids:           func(_ []models.Permission) []string { return nil },
			expectedError: ErrNoValidPermissionIDs,
		},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := seedRole(t, db, 1, "role-"+strconv.Itoa(i))

			if len(tc.initial) > 0 {
				var ids []string
				for _, idx := range tc.initial {
					ids = append(ids, idString(perms[idx].ID))
				}

				_, err := AssignPermissions(ctx, db, 1, r.ID, ids...)
				require.NoError(t, err)
			}

			got, err := AssignPermissions(ctx, db, 1, r.ID, tc.ids(perms)...)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Equal(t, 400, auth.StatusCode(err))
				assert.Equal(t, "bad request: no valid permission IDs provided", err.Error())

				return
			}

			require.NoError(t, err)

			names := make([]string, 0, len(got.Permissions))
			for _, p := range got.Permissions {
				names = append(names, p.Name)
			}

			assert.ElementsMatch(t, tc.expectedNames, names)
		})
	}
}

func TestAssignPermissionsUnknownRole(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads")
	r := seedRole(t, db, 1, "sales")

	_, err := AssignPermissions(ctx, db, 2, r.ID, idString(perms[0].ID))
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = AssignPermissions(ctx, nil, 1, r.ID, idString(perms[0].ID))
	require.ErrorIs(t, err, ErrDBNil)
}

func TestAssignPermissionsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads", "create:leads")
	r := seedRole(t, db, 1, "sales")

	ids := []string{idString(perms[0].ID), idString(perms[1].ID)}

	first, err := AssignPermissions(ctx, db, 1, r.ID, ids...)
	require.NoError(t, err)

	second, err := AssignPermissions(ctx, db, 1, r.ID, ids...)
	require.NoError(t, err)

	assert.ElementsMatch(t, first.PermissionIDs(), second.PermissionIDs())

	var joins int64
	require.NoError(t, db.Model(&models.RolePermission{}).Where("role_id = ?", r.ID).Count(&joins).Error)
	assert.Equal(t, int64(2), joins)
}

func TestAssignPermissionsConcurrent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads", "create:leads", "view:deals", "update:deals")
	r := seedRole(t, db, 1, "sales")

	var wg sync.WaitGroup

	errs := make(chan error, len(perms))

	for _, p := range perms {
		wg.Add(1)

		go func(id uint) {
			defer wg.Done()

			_, err := AssignPermissions(ctx, db, 1, r.ID, idString(id))
			errs <- err
		}(p.ID)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := Get(ctx, db, 1, r.ID)
	require.NoError(t, err)
	assert.Len(t, got.Permissions, len(perms))
}

func TestRevokePermissions(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	perms := seedPermissions(t, db, "view:leads", "create:leads")
	r := seedRole(t, db, 1, "sales")

	_, err := AssignPermissions(ctx, db, 1, r.ID, idString(perms[0].ID), idString(perms[1].ID))
	require.NoError(t, err)

	got, err := RevokePermissions(ctx, db, 1, r.ID, idString(perms[0].ID), "nope")
	require.NoError(t, err)
	require.Len(t, got.Permissions, 1)
	assert.Equal(t, "create:leads", got.Permissions[0].Name)

	_, err = RevokePermissions(ctx, db, 1, r.ID, "0")
	require.ErrorIs(t, err, ErrNoValidPermissionIDs)
}

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, ParseIDs([]string{"3", " 1 ", "x", "3", "0", "2", "-4", "1.5"}))
	assert.Empty(t, ParseIDs(nil))
}
