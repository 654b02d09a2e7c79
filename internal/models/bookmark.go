// Package models contains data structures for the application's domain models.
package models

import "time"

// Bookmark represents a user saving a post for later.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
