package models

import (
	"time"

	"gorm.io/gorm"
)

// Upvote and Downvote live in separate tables. The composite unique index
// keeps one row per (post, user) in each.
type Upvote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index:idx_upvote_post;uniqueIndex:idx_upvote_post_user" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;index:idx_upvote_user;uniqueIndex:idx_upvote_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Upvote) TableName() string {
	return "upvote"
}

func (v *Upvote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	return nil
}

type Downvote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index:idx_downvote_post;uniqueIndex:idx_downvote_post_user" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;index:idx_downvote_user;uniqueIndex:idx_downvote_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Downvote) TableName() string {
	return "downvote"
}

func (v *Downvote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	return nil
}

type VoteDirection string

const (
	VoteNone VoteDirection = ""
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// VoteTally is returned after every vote toggle.
type VoteTally struct {
	PostID    string        `json:"post_id"`
	Upvotes   int64         `json:"upvotes"`
	Downvotes int64         `json:"downvotes"`
	MyVote    VoteDirection `json:"my_vote,omitempty"`
}
