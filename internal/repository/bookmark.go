package repository

import (
	"context"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// BookmarkRepository handles saved posts. Bookmarks are private to the viewer
// and carry no public counter.
type BookmarkRepository interface {
	// Add records a bookmark and returns true if it was newly created.
	Add(ctx context.Context, userID, postID uint) (bool, error)
	// Remove deletes a bookmark and returns true if one existed.
	Remove(ctx context.Context, userID, postID uint) (bool, error)
	// ListByUser returns the viewer's bookmarked posts, newest bookmark first.
	ListByUser(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository creates a bookmark repository over the given connection.
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Add(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("insert", "bookmarks")()

	bookmark := models.Bookmark{UserID: userID, PostID: postID}
	err := r.db.WithContext(ctx).Create(&bookmark).Error
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *bookmarkRepository) Remove(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("delete", "bookmarks")()

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Bookmark{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error) {
	defer observability.TrackQuery("select", "bookmarks")()

	db := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Preload("Post").
		Preload("Post.User")
	if beforeID > 0 {
		db = db.Where("id < ?", beforeID)
	}

	var bookmarks []*models.Bookmark
	if err := db.Find(&bookmarks).Error; err != nil {
		return nil, err
	}
	return bookmarks, nil
}
