package models

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Subject     string    `gorm:"not null" json:"subject"`
	Body        string    `gorm:"type:text" json:"body"`
	CommunityID string    `gorm:"size:36;not null;index:idx_post_community" json:"community_id"`
	AuthorID    string    `gorm:"size:36;not null;index:idx_post_author" json:"author_id"`
	Image       *string   `gorm:"size:255" json:"image,omitempty"` // blob reference
	Score       int       `gorm:"default:0;index" json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Post) TableName() string {
	return "post"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// AuthorRef is the projection of a user embedded in enriched records.
type AuthorRef struct {
	Username string `json:"username"`
}

// EnrichedPost is the denormalized, client-ready view of a Post. The raw
// community reference is replaced by the resolved Community; Author,
// Community and ImageURL are nil when the referenced record is gone.
type EnrichedPost struct {
	ID        string        `json:"id"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	BodyHTML  string        `json:"body_html"`
	AuthorID  string        `json:"author_id"`
	Image     *string       `json:"image,omitempty"`
	Score     int           `json:"score"`
	CreatedAt time.Time     `json:"created_at"`
	Author    *AuthorRef    `json:"author,omitempty"`
	Community *CommunityRef `json:"community,omitempty"`
	ImageURL  *string       `json:"image_url,omitempty"`
}

// SearchResult is the common shape of community and post search hits so
// callers can merge them into one list. Type is "community" or "post".
type SearchResult struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

const (
	SearchTypeCommunity = "community"
	SearchTypePost      = "post"
)
