package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"commune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postRepoStub struct {
	createFn  func(ctx context.Context, post *models.Post) error
	getByIDFn func(ctx context.Context, id uint) (*models.Post, error)
	updateFn  func(ctx context.Context, post *models.Post) error
	deleteFn  func(ctx context.Context, id uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type likeRepoStub struct {
	likeFn   func(ctx context.Context, userID, postID uint) (bool, error)
	unlikeFn func(ctx context.Context, userID, postID uint) (bool, error)
}

func (s *likeRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *likeRepoStub) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, postID)
}

type bookmarkRepoStub struct {
	addFn        func(ctx context.Context, userID, postID uint) (bool, error)
	removeFn     func(ctx context.Context, userID, postID uint) (bool, error)
	listByUserFn func(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error)
}

func (s *bookmarkRepoStub) Add(ctx context.Context, userID, postID uint) (bool, error) {
	return s.addFn(ctx, userID, postID)
}
func (s *bookmarkRepoStub) Remove(ctx context.Context, userID, postID uint) (bool, error) {
	return s.removeFn(ctx, userID, postID)
}
func (s *bookmarkRepoStub) ListByUser(ctx context.Context, userID uint, limit int, beforeID uint) ([]*models.Bookmark, error) {
	return s.listByUserFn(ctx, userID, limit, beforeID)
}

type pageRepoStub struct {
	getByIDFn func(ctx context.Context, id uint) (*models.Page, error)
}

func (s *pageRepoStub) Create(ctx context.Context, page *models.Page) error { return nil }
func (s *pageRepoStub) GetByID(ctx context.Context, id uint) (*models.Page, error) {
	return s.getByIDFn(ctx, id)
}
func (s *pageRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	return nil, models.NewNotFoundError("Page", slug)
}
func (s *pageRepoStub) Update(ctx context.Context, page *models.Page) error { return nil }
func (s *pageRepoStub) Delete(ctx context.Context, id uint) error           { return nil }
func (s *pageRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Page, error) {
	return nil, nil
}

type communityRepoStub struct {
	memberRoleFn func(ctx context.Context, communityID, userID uint) (models.CommunityRole, bool, error)
}

func (s *communityRepoStub) Create(ctx context.Context, community *models.Community) error {
	return nil
}
func (s *communityRepoStub) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	return nil, models.NewNotFoundError("Community", id)
}
func (s *communityRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	return nil, models.NewNotFoundError("Community", slug)
}
func (s *communityRepoStub) Update(ctx context.Context, community *models.Community) error {
	return nil
}
func (s *communityRepoStub) Delete(ctx context.Context, id uint) error { return nil }
func (s *communityRepoStub) Join(ctx context.Context, communityID, userID uint, role models.CommunityRole) (bool, error) {
	return true, nil
}
func (s *communityRepoStub) Leave(ctx context.Context, communityID, userID uint) (bool, error) {
	return true, nil
}
func (s *communityRepoStub) MemberRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, bool, error) {
	return s.memberRoleFn(ctx, communityID, userID)
}
func (s *communityRepoStub) Members(ctx context.Context, communityID uint) ([]*models.CommunityMember, error) {
	return nil, nil
}

type auditRepoStub struct {
	recordFn func(ctx context.Context, entry *models.AuditLog) error
}

func (s *auditRepoStub) Record(ctx context.Context, entry *models.AuditLog) error {
	if s.recordFn != nil {
		return s.recordFn(ctx, entry)
	}
	return nil
}
func (s *auditRepoStub) ListByEntity(ctx context.Context, entityType string, entityID uint, limit int) ([]*models.AuditLog, error) {
	return nil, nil
}

type postServiceDeps struct {
	posts       *postRepoStub
	likes       *likeRepoStub
	bookmarks   *bookmarkRepoStub
	pages       *pageRepoStub
	communities *communityRepoStub
	audit       *auditRepoStub
}

func newTestPostService(d postServiceDeps) PostService {
	if d.posts == nil {
		d.posts = &postRepoStub{}
	}
	if d.likes == nil {
		d.likes = &likeRepoStub{}
	}
	if d.bookmarks == nil {
		d.bookmarks = &bookmarkRepoStub{}
	}
	if d.pages == nil {
		d.pages = &pageRepoStub{}
	}
	if d.communities == nil {
		d.communities = &communityRepoStub{}
	}
	if d.audit == nil {
		d.audit = &auditRepoStub{}
	}
	return NewPostService(d.posts, d.likes, d.bookmarks, d.pages, d.communities, d.audit)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCreatePost(t *testing.T) {
	var created *models.Post
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			createFn: func(_ context.Context, post *models.Post) error {
				post.ID = 7
				created = post
				return nil
			},
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return created, nil
			},
		},
	})

	post, err := svc.Create(context.Background(), 1, "  hello world  ", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(7), post.ID)
	assert.Equal(t, "hello world", post.Content, "content is trimmed")
	assert.Equal(t, uint(1), post.UserID)
}

func TestCreatePostValidation(t *testing.T) {
	svc := newTestPostService(postServiceDeps{})

	_, err := svc.Create(context.Background(), 1, "   ", nil, nil)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), 1, strings.Repeat("x", maxPostLength+1), nil, nil)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	pageID, communityID := uint(1), uint(2)
	_, err = svc.Create(context.Background(), 1, "hello", &pageID, &communityID)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestCreatePostAsPageRequiresOwnership(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		pages: &pageRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Page, error) {
				return &models.Page{ID: id, OwnerID: 99}, nil
			},
		},
	})

	pageID := uint(3)
	_, err := svc.Create(context.Background(), 1, "hello", &pageID, nil)
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestCreatePostInCommunityRequiresMembership(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		communities: &communityRepoStub{
			memberRoleFn: func(_ context.Context, _, _ uint) (models.CommunityRole, bool, error) {
				return "", false, nil
			},
		},
	})

	communityID := uint(4)
	_, err := svc.Create(context.Background(), 1, "hello", nil, &communityID)
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestCreatePostInCommunityAsMember(t *testing.T) {
	var created *models.Post
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			createFn: func(_ context.Context, post *models.Post) error {
				post.ID = 8
				created = post
				return nil
			},
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return created, nil
			},
		},
		communities: &communityRepoStub{
			memberRoleFn: func(_ context.Context, _, _ uint) (models.CommunityRole, bool, error) {
				return models.CommunityRoleMember, true, nil
			},
		},
	})

	communityID := uint(4)
	post, err := svc.Create(context.Background(), 1, "hello", nil, &communityID)
	require.NoError(t, err)
	require.NotNil(t, post.CommunityID)
	assert.Equal(t, communityID, *post.CommunityID)
}

func TestUpdatePostOwnershipEnforced(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 2, Content: "original"}, nil
			},
		},
	})

	_, err := svc.Update(context.Background(), 1, 5, "edited")
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestUpdatePost(t *testing.T) {
	updated := false
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 1, Content: "original"}, nil
			},
			updateFn: func(_ context.Context, post *models.Post) error {
				updated = true
				return nil
			},
		},
	})

	post, err := svc.Update(context.Background(), 1, 5, "edited")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "edited", post.Content)
}

func TestDeletePost(t *testing.T) {
	tests := []struct {
		name     string
		authorID uint
		actorID  uint
		isAdmin  bool
		wantCode string
	}{
		{name: "owner can delete", authorID: 1, actorID: 1},
		{name: "admin can delete anyone's", authorID: 1, actorID: 9, isAdmin: true},
		{name: "stranger cannot", authorID: 1, actorID: 2, wantCode: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestPostService(postServiceDeps{
				posts: &postRepoStub{
					getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
						return &models.Post{ID: id, UserID: tt.authorID}, nil
					},
					deleteFn: func(_ context.Context, id uint) error { return nil },
				},
			})

			err := svc.Delete(context.Background(), tt.actorID, 5, tt.isAdmin)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assertAppErrorCode(t, err, tt.wantCode)
			}
		})
	}
}

func TestDeletePostToleratesAuditFailure(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 1}, nil
			},
			deleteFn: func(_ context.Context, id uint) error { return nil },
		},
		audit: &auditRepoStub{
			recordFn: func(_ context.Context, _ *models.AuditLog) error {
				return errors.New("audit store down")
			},
		},
	})

	// The audit trail is best-effort; its failure never fails the delete.
	assert.NoError(t, svc.Delete(context.Background(), 1, 5, false))
}

func TestLikeRequiresExistingPost(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return nil, models.NewNotFoundError("Post", id)
			},
		},
		likes: &likeRepoStub{
			likeFn: func(_ context.Context, _, _ uint) (bool, error) {
				t.Fatal("like must not be written for a missing post")
				return false, nil
			},
		},
	})

	err := svc.Like(context.Background(), 1, 404)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestLikeIsIdempotent(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, UserID: 2}, nil
			},
		},
		likes: &likeRepoStub{
			// Duplicate like: the repository reports no-op, the service
			// still succeeds.
			likeFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		},
	})

	assert.NoError(t, svc.Like(context.Background(), 1, 5))
}

func TestUnlike(t *testing.T) {
	var gotUser, gotPost uint
	svc := newTestPostService(postServiceDeps{
		likes: &likeRepoStub{
			unlikeFn: func(_ context.Context, userID, postID uint) (bool, error) {
				gotUser, gotPost = userID, postID
				return true, nil
			},
		},
	})

	require.NoError(t, svc.Unlike(context.Background(), 1, 5))
	assert.Equal(t, uint(1), gotUser)
	assert.Equal(t, uint(5), gotPost)
}

func TestBookmarkRequiresExistingPost(t *testing.T) {
	svc := newTestPostService(postServiceDeps{
		posts: &postRepoStub{
			getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
				return nil, models.NewNotFoundError("Post", id)
			},
		},
	})

	err := svc.Bookmark(context.Background(), 1, 404)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestListBookmarksDefaultsLimit(t *testing.T) {
	var gotLimit int
	svc := newTestPostService(postServiceDeps{
		bookmarks: &bookmarkRepoStub{
			listByUserFn: func(_ context.Context, _ uint, limit int, _ uint) ([]*models.Bookmark, error) {
				gotLimit = limit
				return []*models.Bookmark{{ID: 1, UserID: 1, PostID: 5}}, nil
			},
		},
	})

	bookmarks, err := svc.ListBookmarks(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Len(t, bookmarks, 1)
}
