package repository

import (
	"context"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// LikeRepository handles the like toggle. Both directions are idempotent and
// keep posts.like_count in step with the likes table inside one transaction;
// the feed engine only ever reads the counter.
type LikeRepository interface {
	// Like records a like and returns true if it was newly created.
	Like(ctx context.Context, userID, postID uint) (bool, error)
	// Unlike removes a like and returns true if one existed.
	Unlike(ctx context.Context, userID, postID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a like repository over the given connection.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("insert", "likes")()

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{UserID: userID, PostID: postID}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		created = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("like_count", gorm.Expr("like_count + 1")).Error
	})
	return created, err
}

func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("delete", "likes")()

	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).
			Where("id = ? AND like_count > 0", postID).
			Update("like_count", gorm.Expr("like_count - 1")).Error
	})
	return removed, err
}
