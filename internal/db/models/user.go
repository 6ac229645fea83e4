package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents an account of a tenant.
// IsSuper bypasses all authorization checks, IsOwner grants the owner resource bundle,
// everyone else is authorized through the permissions of their roles.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TenantID is the tenant the user belongs to.
	TenantID uint `gorm:"not null;index" json:"tenantId"`
	// Active indicates whether the user account is active and can log in.
	Active bool `json:"active"`
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null" json:"username"`
	// Email is the user's email address.
	Email string `gorm:"size:255" json:"email"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255" json:"-"`
	// IsSuper marks a global super-user.
	IsSuper bool `gorm:"default:false" json:"isSuper"`
	// IsOwner marks the owner of a tenant.
	IsOwner bool `gorm:"default:false" json:"isOwner"`
	// Roles are the roles assigned to this user.
	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPasswordHash reports whether a plaintext password matches an Argon2id hash.
func VerifyPasswordHash(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}

// RoleIDs returns the IDs of the user's loaded roles.
func (u *User) RoleIDs() []uint {
	ids := make([]uint, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}

	return ids
}
