package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PostID    string    `gorm:"size:36;not null;index:idx_comments_post" json:"post_id"`
	AuthorID  string    `gorm:"size:36;not null;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// EnrichedComment 评论 + 作者信息
type EnrichedComment struct {
	Comment
	ContentHTML string     `json:"content_html"`
	Author      *AuthorRef `json:"author,omitempty"`
}
