package service

import (
	"context"

	"commune/internal/models"
	"commune/internal/repository"
)

// FollowResult tells the caller what a follow attempt produced: an active
// follow edge, or a pending request awaiting the target's decision.
type FollowResult struct {
	Following bool `json:"following"`
	Requested bool `json:"requested"`
}

// FollowService handles follow edges, page follows and the private-account
// request flow.
type FollowService interface {
	// Follow follows a public account directly; for a private account it
	// files a pending follow request instead.
	Follow(ctx context.Context, followerID, targetID uint) (*FollowResult, error)
	Unfollow(ctx context.Context, followerID, targetID uint) error
	Followers(ctx context.Context, userID uint) ([]*models.User, error)
	Following(ctx context.Context, userID uint) ([]*models.User, error)

	PendingRequests(ctx context.Context, targetID uint) ([]*models.FollowRequest, error)
	// Decide accepts or declines a pending request. Only the target may call it.
	Decide(ctx context.Context, targetID, requestID uint, accept bool) error

	FollowPage(ctx context.Context, followerID, pageID uint) error
	UnfollowPage(ctx context.Context, followerID, pageID uint) error
}

type followService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	pages   repository.PageRepository
}

// NewFollowService creates the follow service.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, pages repository.PageRepository) FollowService {
	return &followService{follows: follows, users: users, pages: pages}
}

func (s *followService) Follow(ctx context.Context, followerID, targetID uint) (*FollowResult, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.IsPrivate {
		if _, err := s.follows.CreateRequest(ctx, followerID, targetID); err != nil {
			return nil, models.NewInternalError(err)
		}
		return &FollowResult{Requested: true}, nil
	}

	if _, err := s.follows.CreateFollow(ctx, followerID, targetID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &FollowResult{Following: true}, nil
}

func (s *followService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if _, err := s.follows.DeleteFollow(ctx, followerID, targetID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *followService) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (s *followService) Following(ctx context.Context, userID uint) ([]*models.User, error) {
	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (s *followService) PendingRequests(ctx context.Context, targetID uint) ([]*models.FollowRequest, error) {
	reqs, err := s.follows.PendingRequests(ctx, targetID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (s *followService) Decide(ctx context.Context, targetID, requestID uint, accept bool) error {
	req, err := s.follows.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.TargetID != targetID {
		return models.NewForbiddenError("Only the request's target can decide it")
	}

	status := models.FollowRequestDeclined
	if accept {
		status = models.FollowRequestAccepted
	}
	return s.follows.Resolve(ctx, req, status)
}

func (s *followService) FollowPage(ctx context.Context, followerID, pageID uint) error {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return err
	}
	if _, err := s.follows.FollowPage(ctx, followerID, pageID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *followService) UnfollowPage(ctx context.Context, followerID, pageID uint) error {
	if _, err := s.follows.UnfollowPage(ctx, followerID, pageID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
