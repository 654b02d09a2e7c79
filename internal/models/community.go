// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunityRole is the membership role within a community.
type CommunityRole string

const (
	// CommunityRoleMember is a regular member.
	CommunityRoleMember CommunityRole = "member"
	// CommunityRoleAdmin can moderate the community.
	CommunityRoleAdmin CommunityRole = "admin"
)

// Community represents an interest group users can join and post into.
type Community struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Slug        string         `gorm:"unique;not null" json:"slug"`
	Description string         `json:"description"`
	Avatar      string         `json:"avatar"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Owner       User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityMember links a user to a community with a role.
type CommunityMember struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CommunityID uint          `gorm:"not null;uniqueIndex:idx_community_member;index" json:"community_id"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_community_member;index" json:"user_id"`
	Role        CommunityRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	CreatedAt   time.Time     `json:"created_at"`
}
