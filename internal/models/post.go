// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is the unit of content that the feed engine ranks and paginates.
//
// LikeCount and CommentCount are denormalized counters adjusted by the like
// and comment write paths; the feed engine only ever reads them. DeletedAt is
// the soft-delete tombstone: a deleted post stays in the table but is
// excluded from every feed query.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user"`
	PageID      *uint      `gorm:"index" json:"page_id,omitempty"`
	Page        *Page      `gorm:"foreignKey:PageID" json:"page,omitempty"`
	CommunityID *uint      `gorm:"index" json:"community_id,omitempty"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`

	LikeCount    int `gorm:"not null;default:0" json:"like_count"`
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`

	// Per-viewer fields, populated by feed enrichment. Never persisted.
	Liked            bool `gorm:"-" json:"liked"`
	Bookmarked       bool `gorm:"-" json:"bookmarked"`
	AuthorFollowed   bool `gorm:"-" json:"author_followed"`
	FollowReqPending bool `gorm:"-" json:"follow_request_pending"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
