package token

import (
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/user"

	"github.com/google/uuid"
)

// Token stores one provider access/refresh token pair per (user, provider).
// Rows are updated in place on later logins and refreshes, never duplicated.
type Token struct {
	common.BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_tokens_user_provider,unique"`
	User         user.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Provider     string    `gorm:"type:varchar(50);not null;index:idx_tokens_user_provider,unique"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken *string   `gorm:"type:text"`
	ExpiresAt    *time.Time
}

// TableName specifies the table name for the Token model.
func (Token) TableName() string {
	return "tokens"
}

// Expired reports whether the stored access token's expiry is strictly in
// the past. Records without an expiry never count as expired.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
