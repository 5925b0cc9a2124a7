package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/provider"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByProviderID(ctx context.Context, providerName, externalID string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func providerColumn(providerName string) (string, error) {
	switch providerName {
	case provider.Spotify:
		return "spotify_id", nil
	case provider.Strava:
		return "strava_id", nil
	}
	return "", fmt.Errorf("%w: %q", provider.ErrUnknownProvider, providerName)
}

func isDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("This provider account is already linked to a user.")
		}
		return err
	}
	return nil
}

// FindByID retrieves a user by their internal ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByProviderID retrieves a user by the external ID a provider assigned them.
func (r *gormRepository) FindByProviderID(ctx context.Context, providerName, externalID string) (*User, error) {
	column, err := providerColumn(providerName)
	if err != nil {
		return nil, err
	}

	var userModel User
	err = r.db.WithContext(ctx).Where(column+" = ?", externalID).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails(
				fmt.Sprintf("User not found with %s ID %s.", providerName, externalID),
			)
		}
		return nil, err
	}
	return &userModel, nil
}

// Update modifies an existing user record in the database.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("This provider account is already linked to another user.")
		}
		return err
	}
	return nil
}
