package service

import (
	"context"
	"fmt"
	"strings"

	"commune/internal/cache"
	"commune/internal/middleware"
	"commune/internal/models"
	"commune/internal/repository"
)

// maxPostLength bounds post content, matching the client-side limit.
const maxPostLength = 5000

// PostService handles authoring and the single-post read path.
type PostService interface {
	Create(ctx context.Context, userID uint, content string, pageID, communityID *uint) (*models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, userID, id uint, content string) (*models.Post, error)
	Delete(ctx context.Context, userID, id uint, isAdmin bool) error

	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	Bookmark(ctx context.Context, userID, postID uint) error
	Unbookmark(ctx context.Context, userID, postID uint) error
	ListBookmarks(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error)
}

type postService struct {
	posts       repository.PostRepository
	likes       repository.LikeRepository
	bookmarks   repository.BookmarkRepository
	pages       repository.PageRepository
	communities repository.CommunityRepository
	audit       repository.AuditRepository
}

// NewPostService creates the post service.
func NewPostService(
	posts repository.PostRepository,
	likes repository.LikeRepository,
	bookmarks repository.BookmarkRepository,
	pages repository.PageRepository,
	communities repository.CommunityRepository,
	audit repository.AuditRepository,
) PostService {
	return &postService{
		posts:       posts,
		likes:       likes,
		bookmarks:   bookmarks,
		pages:       pages,
		communities: communities,
		audit:       audit,
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Content cannot be empty")
	}
	if len(content) > maxPostLength {
		return "", models.NewValidationError(fmt.Sprintf("Content exceeds %d characters", maxPostLength))
	}
	return content, nil
}

func (s *postService) Create(ctx context.Context, userID uint, content string, pageID, communityID *uint) (*models.Post, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if pageID != nil && communityID != nil {
		return nil, models.NewValidationError("A post belongs to a page or a community, not both")
	}

	// Posting as a page requires owning it; posting into a community
	// requires membership.
	if pageID != nil {
		page, err := s.pages.GetByID(ctx, *pageID)
		if err != nil {
			return nil, err
		}
		if page.OwnerID != userID {
			return nil, models.NewForbiddenError("Only the page owner can post as the page")
		}
	}
	if communityID != nil {
		if _, member, err := s.communities.MemberRole(ctx, *communityID, userID); err != nil {
			return nil, models.NewInternalError(err)
		} else if !member {
			return nil, models.NewForbiddenError("Join the community before posting in it")
		}
	}

	post := &models.Post{
		Content:     content,
		UserID:      userID,
		PageID:      pageID,
		CommunityID: communityID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePublicFeed(ctx)
	return s.posts.GetByID(ctx, post.ID)
}

func (s *postService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		p, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *postService) Update(ctx context.Context, userID, id uint, content string) (*models.Post, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	post.Content = content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, id)
	s.recordAudit(ctx, userID, "update", "post", id, "")
	return post, nil
}

func (s *postService) Delete(ctx context.Context, userID, id uint, isAdmin bool) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != userID && !isAdmin {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	cache.InvalidatePost(ctx, id)
	cache.InvalidatePublicFeed(ctx)
	s.recordAudit(ctx, userID, "delete", "post", id, "")
	return nil
}

func (s *postService) Like(ctx context.Context, userID, postID uint) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	if _, err := s.likes.Like(ctx, userID, postID); err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (s *postService) Unlike(ctx context.Context, userID, postID uint) error {
	if _, err := s.likes.Unlike(ctx, userID, postID); err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (s *postService) Bookmark(ctx context.Context, userID, postID uint) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	if _, err := s.bookmarks.Add(ctx, userID, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *postService) Unbookmark(ctx context.Context, userID, postID uint) error {
	if _, err := s.bookmarks.Remove(ctx, userID, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *postService) ListBookmarks(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error) {
	if limit <= 0 {
		limit = 10
	}
	bookmarks, err := s.bookmarks.ListByUser(ctx, userID, limit, beforeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}

// recordAudit is best-effort; a failed audit write never fails the mutation.
func (s *postService) recordAudit(ctx context.Context, actorID uint, action, entityType string, entityID uint, detail string) {
	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		middleware.Logger.WarnContext(ctx, "audit write failed",
			"action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}
