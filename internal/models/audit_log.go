// Package models contains data structures for the application's domain models.
package models

import "time"

// AuditLog records a mutation of an audited entity. Written by the service
// layer on update/delete; the feed engine never touches these rows.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntryID    string    `gorm:"size:36;uniqueIndex" json:"entry_id"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	Action     string    `gorm:"size:32;not null" json:"action"`
	EntityType string    `gorm:"size:32;not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
