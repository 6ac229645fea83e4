package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate registers the custom join tables and migrates every model of the authorization store.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Role{}, "Permissions", &RolePermission{}); err != nil {
		return fmt.Errorf("setup role_permissions join table: %w", err)
	}

	if err := db.SetupJoinTable(&User{}, "Roles", &UserRole{}); err != nil {
		return fmt.Errorf("setup user_roles join table: %w", err)
	}

	if err := db.AutoMigrate(
		&Permission{},
		&Role{},
		&User{},
		&RolePermission{},
		&UserRole{},
	); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}

	return nil
}
