package repository

import (
	"context"
	"errors"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository handles user-to-user follows, page follows and the
// follow-request flow for private accounts.
type FollowRepository interface {
	// CreateFollow records a follow edge and returns true if newly created.
	CreateFollow(ctx context.Context, followerID, followedID uint) (bool, error)
	// DeleteFollow removes a follow edge and returns true if one existed.
	DeleteFollow(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]*models.User, error)
	Following(ctx context.Context, userID uint) ([]*models.User, error)

	// CreateRequest records a pending follow request against a private
	// account and returns true if newly created.
	CreateRequest(ctx context.Context, requesterID, targetID uint) (bool, error)
	GetRequest(ctx context.Context, id uint) (*models.FollowRequest, error)
	PendingRequests(ctx context.Context, targetID uint) ([]*models.FollowRequest, error)
	// Resolve finalizes a pending request. Accepting creates the follow edge
	// in the same transaction, so a request never ends up accepted without
	// its follow.
	Resolve(ctx context.Context, req *models.FollowRequest, status models.FollowRequestStatus) error

	// FollowPage records a page follow and returns true if newly created.
	FollowPage(ctx context.Context, followerID, pageID uint) (bool, error)
	// UnfollowPage removes a page follow and returns true if one existed.
	UnfollowPage(ctx context.Context, followerID, pageID uint) (bool, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a follow repository over the given connection.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) CreateFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	defer observability.TrackQuery("insert", "follows")()

	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	err := r.db.WithContext(ctx).Create(&follow).Error
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *followRepository) DeleteFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	defer observability.TrackQuery("delete", "follows")()

	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	defer observability.TrackQuery("select", "follows")()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	defer observability.TrackQuery("select", "follows")()

	var users []*models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]*models.User, error) {
	defer observability.TrackQuery("select", "follows")()

	var users []*models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *followRepository) CreateRequest(ctx context.Context, requesterID, targetID uint) (bool, error) {
	defer observability.TrackQuery("insert", "follow_requests")()

	req := models.FollowRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      models.FollowRequestPending,
	}
	err := r.db.WithContext(ctx).Create(&req).Error
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *followRepository) GetRequest(ctx context.Context, id uint) (*models.FollowRequest, error) {
	defer observability.TrackQuery("select", "follow_requests")()

	var req models.FollowRequest
	err := r.db.WithContext(ctx).Preload("Requester").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Follow request", id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *followRepository) PendingRequests(ctx context.Context, targetID uint) ([]*models.FollowRequest, error) {
	defer observability.TrackQuery("select", "follow_requests")()

	var reqs []*models.FollowRequest
	err := r.db.WithContext(ctx).
		Where("target_id = ? AND status = ?", targetID, models.FollowRequestPending).
		Order("id DESC").
		Preload("Requester").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *followRepository) Resolve(ctx context.Context, req *models.FollowRequest, status models.FollowRequestStatus) error {
	defer observability.TrackQuery("update", "follow_requests")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FollowRequest{}).
			Where("id = ? AND status = ?", req.ID, models.FollowRequestPending).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewValidationError("Follow request already resolved")
		}
		if status != models.FollowRequestAccepted {
			return nil
		}
		follow := models.Follow{FollowerID: req.RequesterID, FollowedID: req.TargetID}
		if err := tx.Create(&follow).Error; err != nil && !isUniqueViolation(err) {
			return err
		}
		return nil
	})
}

func (r *followRepository) FollowPage(ctx context.Context, followerID, pageID uint) (bool, error) {
	defer observability.TrackQuery("insert", "page_follows")()

	pf := models.PageFollow{FollowerID: followerID, PageID: pageID}
	err := r.db.WithContext(ctx).Create(&pf).Error
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *followRepository) UnfollowPage(ctx context.Context, followerID, pageID uint) (bool, error) {
	defer observability.TrackQuery("delete", "page_follows")()

	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND page_id = ?", followerID, pageID).
		Delete(&models.PageFollow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
