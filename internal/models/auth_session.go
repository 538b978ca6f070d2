package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthSession backs one issued access token; the token's jti is the row ID.
// Revoking the row signs the holder out even before the token expires.
type AuthSession struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uuid.UUID    `gorm:"type:uuid;not null;index" json:"account_id"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	Revoked   bool         `gorm:"default:false" json:"revoked"`
	UserAgent string       `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Account   StaffAccount `gorm:"foreignKey:AccountID" json:"-"`
}

type PasswordReset struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID uuid.UUID    `gorm:"type:uuid;not null;index" json:"account_id"`
	TokenHash string       `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Account   StaffAccount `gorm:"foreignKey:AccountID" json:"-"`
}
