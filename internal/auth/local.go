package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

var ( //nolint:gochecknoglobals
	// dummyPasswordHash is compared against on unknown usernames so every login pays one Argon2id run.
	dummyPasswordHash = sync.OnceValue(func() string {
		return models.HashPassword("crm-authz-unknown-user")
	})

	verifyPassword = models.VerifyPasswordHash
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewUser holds the attributes of a user to create.
type NewUser struct {
	TenantID uint
	Username string
	Email    string
	Password string
	IsSuper  bool
	IsOwner  bool
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user against the local database.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).Where("username = ?", username).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		verifyPassword(password, dummyPasswordHash())
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !verifyPassword(password, user.Password) {
		return nil, ErrInvalidPassword
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return &user, nil
}

// CreateUser creates a new active local user.
func (p *LocalProvider) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	var existing models.User

	err := p.db.WithContext(ctx).Where("username = ?", in.Username).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: %w", ErrConflict, ErrUserNameExists)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := models.User{
		TenantID: in.TenantID,
		Active:   true,
		Username: in.Username,
		Email:    in.Email,
		Password: models.HashPassword(in.Password),
		IsSuper:  in.IsSuper,
		IsOwner:  in.IsOwner,
	}

	if err := p.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, ErrUserNameExists)
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}
