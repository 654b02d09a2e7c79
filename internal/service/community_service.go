package service

import (
	"context"
	"strings"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"
)

// CommunityService handles communities and their memberships.
type CommunityService interface {
	Create(ctx context.Context, ownerID uint, name, description string) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	Update(ctx context.Context, userID, communityID uint, name, description, avatar *string) (*models.Community, error)
	Delete(ctx context.Context, userID, communityID uint, isAdmin bool) error

	Join(ctx context.Context, communityID, userID uint) error
	Leave(ctx context.Context, communityID, userID uint) error
	Members(ctx context.Context, communityID uint) ([]*models.CommunityMember, error)
}

type communityService struct {
	communities repository.CommunityRepository
	audit       repository.AuditRepository
}

// NewCommunityService creates the community service.
func NewCommunityService(communities repository.CommunityRepository, audit repository.AuditRepository) CommunityService {
	return &communityService{communities: communities, audit: audit}
}

func (s *communityService) Create(ctx context.Context, ownerID uint, name, description string) (*models.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Community name cannot be empty")
	}

	community := &models.Community{
		Name:        name,
		Slug:        slugify(name),
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.communities.Create(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

func (s *communityService) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	var community models.Community
	err := cache.Aside(ctx, cache.CommunityKey(slug), &community, cache.CommunityTTL, func() error {
		c, err := s.communities.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		community = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// canModerate reports whether the user owns the community or holds the admin
// role in it.
func (s *communityService) canModerate(ctx context.Context, community *models.Community, userID uint) (bool, error) {
	if community.OwnerID == userID {
		return true, nil
	}
	role, member, err := s.communities.MemberRole(ctx, community.ID, userID)
	if err != nil {
		return false, err
	}
	return member && role == models.CommunityRoleAdmin, nil
}

func (s *communityService) Update(ctx context.Context, userID, communityID uint, name, description, avatar *string) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canModerate(ctx, community, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewForbiddenError("Only community admins can edit it")
	}

	if name != nil && strings.TrimSpace(*name) != "" {
		community.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		community.Description = *description
	}
	if avatar != nil {
		community.Avatar = *avatar
	}

	if err := s.communities.Update(ctx, community); err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CommunityKey(community.Slug))
	return community, nil
}

func (s *communityService) Delete(ctx context.Context, userID, communityID uint, isAdmin bool) error {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.OwnerID != userID && !isAdmin {
		return models.NewForbiddenError("Only the community owner can delete it")
	}

	if err := s.communities.Delete(ctx, communityID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.CommunityKey(community.Slug))

	entry := &models.AuditLog{ActorID: userID, Action: "delete", EntityType: "community", EntityID: communityID}
	_ = s.audit.Record(ctx, entry)
	return nil
}

func (s *communityService) Join(ctx context.Context, communityID, userID uint) error {
	if _, err := s.communities.GetByID(ctx, communityID); err != nil {
		return err
	}
	if _, err := s.communities.Join(ctx, communityID, userID, models.CommunityRoleMember); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *communityService) Leave(ctx context.Context, communityID, userID uint) error {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.OwnerID == userID {
		return models.NewValidationError("The owner cannot leave their own community")
	}
	if _, err := s.communities.Leave(ctx, communityID, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *communityService) Members(ctx context.Context, communityID uint) ([]*models.CommunityMember, error) {
	members, err := s.communities.Members(ctx, communityID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}
