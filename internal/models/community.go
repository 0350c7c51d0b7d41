package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Community struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex:idx_community_name;size:21;not null" json:"name"`
	NameKey     *string   `gorm:"uniqueIndex:idx_community_name_key;size:21" json:"-"` // lower-cased name in case-insensitive mode
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	AuthorID    string    `gorm:"size:36;not null;index" json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Community) TableName() string {
	return "community"
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.NameKey == nil {
		key := c.Name
		c.NameKey = &key
	}
	return nil
}

// CommunityNameKey is the value stored in the unique name_key column.
func CommunityNameKey(name string, foldCase bool) string {
	if foldCase {
		return strings.ToLower(name)
	}
	return name
}

// CommunityRef is the projection of a community embedded in an enriched post.
type CommunityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommunityWithPosts is the response of a community page.
type CommunityWithPosts struct {
	Community
	Posts []EnrichedPost `json:"posts"`
}
