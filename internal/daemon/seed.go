package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/catalog"
	"github.com/tenantcrm/crm-authz/internal/config"
	"github.com/tenantcrm/crm-authz/internal/db/controller/permission"
	"github.com/tenantcrm/crm-authz/internal/db/models"
	"github.com/tenantcrm/crm-authz/internal/web"
)

const (
	defaultAdminName     = "admin"
	defaultAdminPassword = "changeme"
	defaultTenantID      = 1
)

// seed inserts missing catalog entries and, on an empty users table, the first super-user.
func seed(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	opts := catalog.Options{Prefix: cfg.Generator.Prefix, Seed: true}

	res, err := catalog.Generate(web.Routes(), catalog.StaticPermissions(), opts)
	if err != nil {
		return fmt.Errorf("failed to generate permission catalog: %w", err)
	}

	if _, err = catalog.Reconcile(ctx, permission.Store{DB: db}, res, opts); err != nil {
		return fmt.Errorf("failed to seed permission catalog: %w", err)
	}

	var count int64
	if err = db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	password := cfg.Authz.AdminPassword
	if password == "" {
		password = defaultAdminPassword
	}

	if password == defaultAdminPassword {
		log.Warn().Msg("seeding super-user with the default password, change authz.adminPassword")
	}

	admin, err := auth.NewLocalProvider(db).CreateUser(ctx, auth.NewUser{
		TenantID: defaultTenantID,
		Username: defaultAdminName,
		Password: password,
		IsSuper:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed super-user: %w", err)
	}

	log.Info().Uint64("user_id", admin.ID).Str("username", admin.Username).Msg("super-user seeded")

	return nil
}
