package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffAccount is a dashboard operator who can sign in. Roster entries
// (ApprovedUser) are separate documents and never authenticate.
type StaffAccount struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	DisplayName string         `gorm:"size:255" json:"display_name"`
	Role        string         `gorm:"size:20;default:'admin'" json:"role"`
	Disabled    bool           `gorm:"default:false" json:"disabled"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *StaffAccount) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
