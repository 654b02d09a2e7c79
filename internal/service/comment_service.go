package service

import (
	"context"
	"fmt"
	"strings"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"
)

// maxCommentLength bounds comment content.
const maxCommentLength = 2000

// CommentService handles commenting on posts.
type CommentService interface {
	Create(ctx context.Context, userID, postID uint, content string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit int, beforeID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, userID, commentID uint, isAdmin bool) error
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

// NewCommentService creates the comment service.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) CommentService {
	return &commentService{comments: comments, posts: posts}
}

func (s *commentService) Create(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Content cannot be empty")
	}
	if len(content) > maxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Content exceeds %d characters", maxCommentLength))
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: userID, PostID: postID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, postID)
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *commentService) ListByPost(ctx context.Context, postID uint, limit int, beforeID uint) ([]*models.Comment, error) {
	if limit <= 0 {
		limit = 20
	}
	comments, err := s.comments.ListByPost(ctx, postID, limit, beforeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (s *commentService) Delete(ctx context.Context, userID, commentID uint, isAdmin bool) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !isAdmin {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.comments.Delete(ctx, comment); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}
