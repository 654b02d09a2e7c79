package repository

import (
	"context"
	"errors"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// CommunityRepository handles communities and their memberships.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error

	// Join adds the user as a member and returns true if newly joined.
	Join(ctx context.Context, communityID, userID uint, role models.CommunityRole) (bool, error)
	// Leave removes the membership and returns true if one existed.
	Leave(ctx context.Context, communityID, userID uint) (bool, error)
	// MemberRole returns the user's role and whether they are a member at all.
	MemberRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, bool, error)
	Members(ctx context.Context, communityID uint) ([]*models.CommunityMember, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a community repository over the given connection.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	defer observability.TrackQuery("insert", "communities")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		// The creator starts as admin member.
		member := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      community.OwnerID,
			Role:        models.CommunityRoleAdmin,
		}
		return tx.Create(&member).Error
	})
	if isUniqueViolation(err) {
		return models.NewValidationError("Community slug already taken")
	}
	return err
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	defer observability.TrackQuery("select", "communities")()

	var community models.Community
	err := r.db.WithContext(ctx).Preload("Owner").First(&community, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Community", id)
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	defer observability.TrackQuery("select", "communities")()

	var community models.Community
	err := r.db.WithContext(ctx).Preload("Owner").Where("slug = ?", slug).First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Community", slug)
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	defer observability.TrackQuery("update", "communities")()
	return r.db.WithContext(ctx).Save(community).Error
}

func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "communities")()

	result := r.db.WithContext(ctx).Delete(&models.Community{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Community", id)
	}
	return nil
}

func (r *communityRepository) Join(ctx context.Context, communityID, userID uint, role models.CommunityRole) (bool, error) {
	defer observability.TrackQuery("insert", "community_members")()

	member := models.CommunityMember{CommunityID: communityID, UserID: userID, Role: role}
	err := r.db.WithContext(ctx).Create(&member).Error
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *communityRepository) Leave(ctx context.Context, communityID, userID uint) (bool, error) {
	defer observability.TrackQuery("delete", "community_members")()

	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *communityRepository) MemberRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, bool, error) {
	defer observability.TrackQuery("select", "community_members")()

	var member models.CommunityMember
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return member.Role, true, nil
}

func (r *communityRepository) Members(ctx context.Context, communityID uint) ([]*models.CommunityMember, error) {
	defer observability.TrackQuery("select", "community_members")()

	var members []*models.CommunityMember
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
