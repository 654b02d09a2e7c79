// Package models contains data structures for the application's domain models.
package models

import "time"

// Follow represents a user following another user's posts.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed   User      `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PageFollow represents a user following a page's posts.
type PageFollow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_page_follow_pair" json:"follower_id"`
	PageID     uint      `gorm:"not null;uniqueIndex:idx_page_follow_pair;index" json:"page_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowRequestStatus represents the status of a follow request.
type FollowRequestStatus string

const (
	// FollowRequestPending indicates a request awaiting a decision.
	FollowRequestPending FollowRequestStatus = "pending"
	// FollowRequestAccepted indicates an accepted request.
	FollowRequestAccepted FollowRequestStatus = "accepted"
	// FollowRequestDeclined indicates a declined request.
	FollowRequestDeclined FollowRequestStatus = "declined"
)

// FollowRequest is created when a user tries to follow a private account.
// Direction matters: requester asked, target decides.
type FollowRequest struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	RequesterID uint                `gorm:"not null;uniqueIndex:idx_follow_req_pair;index" json:"requester_id"`
	TargetID    uint                `gorm:"not null;uniqueIndex:idx_follow_req_pair;index" json:"target_id"`
	Status      FollowRequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Requester   User                `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Target      User                `gorm:"foreignKey:TargetID" json:"target,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
