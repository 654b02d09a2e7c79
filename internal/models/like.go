// Package models contains data structures for the application's domain models.
package models

import "time"

// Like represents a user liking a post. One row per (user, post); the
// unique index backs the INSERT ... ON CONFLICT DO NOTHING write path.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
