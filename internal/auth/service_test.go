package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// setupTestDB creates a file backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, models.Migrate(db), "failed to migrate test database")

	return db
}

type fixture struct {
	db      *gorm.DB
	user    *models.User
	sales   models.Role
	support models.Role
	foreign models.Role
}

// seedFixture creates a user of tenant 1 holding an active, an inactive and a foreign tenant role.
func seedFixture(t *testing.T) fixture {
	t.Helper()

	ctx := context.Background()
	db := setupTestDB(t)

	perms := []models.Permission{
		{Name: "view:users", Resource: "users", Action: "view", Method: "GET", Path: "/users"},
		{Name: "create:users", Resource: "users", Action: "create", Method: "POST", Path: "/users"},
		{Name: "delete:users", Resource: "users", Action: "delete", Method: "DELETE", Path: "/users/:id"},
		{Name: "view:users", Resource: "users", Action: "view", Method: "GET", Path: "/users/:id"},
	}
	require.NoError(t, db.Create(&perms).Error)

	f := fixture{db: db}

	f.sales = models.Role{TenantID: 1, Name: "sales", IsActive: true}
	f.support = models.Role{TenantID: 1, Name: "support", IsActive: true}
	f.foreign = models.Role{TenantID: 2, Name: "sales", IsActive: true}

	for _, r := range []*models.Role{&f.sales, &f.support, &f.foreign} {
		require.NoError(t, db.Create(r).Error)
	}

	require.NoError(t, db.Model(&f.support).Update("is_active", false).Error)

	joins := []models.RolePermission{
		{RoleID: f.sales.ID, PermissionID: perms[0].ID},
		{RoleID: f.sales.ID, PermissionID: perms[1].ID},
		{RoleID: f.sales.ID, PermissionID: perms[3].ID},
		{RoleID: f.support.ID, PermissionID: perms[2].ID},
		{RoleID: f.foreign.ID, PermissionID: perms[2].ID},
	}
	require.NoError(t, db.Create(&joins).Error)

	user, err := NewLocalProvider(db).CreateUser(ctx, NewUser{TenantID: 1, Username: "jane", Password: "s3cret"})
	require.NoError(t, err)

	f.user = user

	return f
}

func TestServicePermissionNames(t *testing.T) {
	ctx := context.Background()
	f := seedFixture(t)
	svc := NewService(f.db)

	names, err := svc.PermissionNames(ctx, 1, []uint{f.sales.ID, f.support.ID, f.foreign.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"view:users", "create:users"}, names)

	names, err = svc.PermissionNames(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestServiceIdentity(t *testing.T) {
	ctx := context.Background()
	f := seedFixture(t)
	svc := NewService(f.db)

	require.NoError(t, svc.AssignRoleToUser(ctx, f.user.ID, f.sales.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, f.user.ID, f.sales.ID))

	err := svc.AssignRoleToUser(ctx, f.user.ID, f.foreign.ID)
	require.ErrorIs(t, err, ErrBadRequest)

	err = svc.AssignRoleToUser(ctx, 999, f.sales.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	identity, err := svc.Identity(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, identity.UserID)
	assert.Equal(t, uint(1), identity.TenantID)
	assert.Equal(t, []uint{f.sales.ID}, identity.RoleIDs)
	assert.Equal(t, StrategyRole, identity.Strategy())

	perms, err := svc.UserPermissions(ctx, f.user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"view:users", "create:users"}, perms)

	_, err = svc.Identity(ctx, 999)
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, f.db.Model(f.user).Update("active", false).Error)

	_, err = svc.Identity(ctx, f.user.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestEngineWithService(t *testing.T) {
	ctx := context.Background()
	f := seedFixture(t)
	svc := NewService(f.db)

	require.NoError(t, svc.AssignRoleToUser(ctx, f.user.ID, f.sales.ID))

	identity, err := svc.Identity(ctx, f.user.ID)
	require.NoError(t, err)

	engine := NewEngine(svc, NewOwnerBundle())

	d, err := engine.Authorize(ctx, identity, []string{"view:users", "create:users"})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = engine.Authorize(ctx, identity, []string{"delete:users"})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "missing required permission: delete:users", d.Reason)
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	f := seedFixture(t)
	p := NewLocalProvider(f.db)

	user, err := p.Authenticate(ctx, "jane", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)

	_, err = p.Authenticate(ctx, "jane", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = p.Authenticate(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = p.CreateUser(ctx, NewUser{TenantID: 1, Username: "jane", Password: "x"})
	require.ErrorIs(t, err, ErrUserNameExists)
	assert.Equal(t, 409, StatusCode(err))

	require.NoError(t, f.db.Model(f.user).Update("active", false).Error)

	_, err = p.Authenticate(ctx, "jane", "s3cret")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestAuthenticateUnknownUserVerifiesDummyHash(t *testing.T) {
	ctx := context.Background()
	f := seedFixture(t)
	p := NewLocalProvider(f.db)

	var hashes []string

	verify := verifyPassword
	verifyPassword = func(password, hash string) bool {
		hashes = append(hashes, hash)
		return verify(password, hash)
	}

	t.Cleanup(func() { verifyPassword = verify })

	_, err := p.Authenticate(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Len(t, hashes, 1)
	assert.Equal(t, dummyPasswordHash(), hashes[0])

	_, err = p.Authenticate(ctx, "jane", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)
	require.Len(t, hashes, 2)
	assert.Equal(t, f.user.Password, hashes[1])
}
