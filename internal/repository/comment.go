package repository

import (
	"context"
	"errors"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository handles comments. Create and Delete adjust the parent
// post's comment_count in the same transaction so the ranking input never
// drifts from the comments table.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByPost returns comments on a post, newest first, keyset-paged by id.
	ListByPost(ctx context.Context, postID uint, limit int, beforeID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a comment repository over the given connection.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit int, beforeID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	db := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id DESC").
		Limit(limit).
		Preload("User")
	if beforeID > 0 {
		db = db.Where("id < ?", beforeID)
	}

	var comments []*models.Comment
	if err := db.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("delete", "comments")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Comment{}, comment.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", comment.ID)
		}
		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			Update("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}
