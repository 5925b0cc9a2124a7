package user

import (
	"errors"
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/provider"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoProviderIdentity is returned when a user record would be created
// without any provider identity attached.
var ErrNoProviderIdentity = errors.New("user requires at least one provider identity")

// User represents the internal identity record. Each provider identifier is
// nullable but unique when present; a user must originate from some provider
// login, so at least one must be set at creation time.
type User struct {
	common.BaseModel
	SpotifyID *string `gorm:"type:varchar(255);uniqueIndex"`
	StravaID  *string `gorm:"type:varchar(255);uniqueIndex"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate enforces the at-least-one-provider invariant.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if err := u.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if u.SpotifyID == nil && u.StravaID == nil {
		return ErrNoProviderIdentity
	}
	return nil
}

// ExternalID returns the external identifier stored for the given provider,
// or nil when that provider was never linked.
func (u *User) ExternalID(providerName string) *string {
	switch providerName {
	case provider.Spotify:
		return u.SpotifyID
	case provider.Strava:
		return u.StravaID
	}
	return nil
}

// SetExternalID stores the external identifier for the given provider.
func (u *User) SetExternalID(providerName, externalID string) {
	switch providerName {
	case provider.Spotify:
		u.SpotifyID = &externalID
	case provider.Strava:
		u.StravaID = &externalID
	}
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	SpotifyID *string   `json:"spotify_id"`
	StravaID  *string   `json:"strava_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		SpotifyID: u.SpotifyID,
		StravaID:  u.StravaID,
		CreatedAt: u.CreatedAt,
	}
}
