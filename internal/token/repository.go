package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rebeat_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the persistence contract for provider token pairs.
type Repository interface {
	// Upsert stores the latest token pair for (userID, provider). The access
	// token is replaced unconditionally; the refresh token and expiry only
	// when a new non-empty value is supplied, since refresh responses may
	// omit an unchanged refresh token.
	Upsert(ctx context.Context, userID uuid.UUID, providerName, accessToken, refreshToken string, expiresAt *time.Time) (*Token, error)
	Get(ctx context.Context, userID uuid.UUID, providerName string) (*Token, error)
	// ListExpiringBefore returns all token rows whose expiry is before t.
	ListExpiringBefore(ctx context.Context, t time.Time) ([]Token, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM token repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Upsert(ctx context.Context, userID uuid.UUID, providerName, accessToken, refreshToken string, expiresAt *time.Time) (*Token, error) {
	var record Token
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, providerName).
		First(&record).Error

	switch {
	case err == nil:
		record.AccessToken = accessToken
		if refreshToken != "" {
			record.RefreshToken = &refreshToken
		}
		if expiresAt != nil {
			record.ExpiresAt = expiresAt
		}
		if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, fmt.Errorf("updating token for %s: %w", providerName, err)
		}
		return &record, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		record = Token{
			UserID:      userID,
			Provider:    providerName,
			AccessToken: accessToken,
			ExpiresAt:   expiresAt,
		}
		if refreshToken != "" {
			record.RefreshToken = &refreshToken
		}
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, fmt.Errorf("creating token for %s: %w", providerName, err)
		}
		return &record, nil

	default:
		return nil, err
	}
}

func (r *gormRepository) Get(ctx context.Context, userID uuid.UUID, providerName string) (*Token, error) {
	var record Token
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, providerName).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails(
				fmt.Sprintf("No %s token stored for this user.", providerName),
			)
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) ListExpiringBefore(ctx context.Context, t time.Time) ([]Token, error) {
	var records []Token
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", t).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
