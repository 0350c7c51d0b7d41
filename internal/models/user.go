package models

import (
	"time"

	"gorm.io/gorm"
)

// User is created on first sign-in from the identity provider's claims.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Username   string    `gorm:"uniqueIndex:idx_users_username;size:64;not null" json:"username"`
	ExternalID string    `gorm:"uniqueIndex:idx_users_external_id;size:255;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// Profile is the public view of a user.
type Profile struct {
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joined_at"`
	PostCount int64     `json:"post_count"` // approximate, from the counter service
}
