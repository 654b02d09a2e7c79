package repository

import (
	"context"
	"errors"

	"commune/internal/models"
	"commune/internal/observability"

	"gorm.io/gorm"
)

// PageRepository handles brand/organization pages.
type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error
	GetByID(ctx context.Context, id uint) (*models.Page, error)
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	Update(ctx context.Context, page *models.Page) error
	Delete(ctx context.Context, id uint) error
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Page, error)
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a page repository over the given connection.
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(ctx context.Context, page *models.Page) error {
	defer observability.TrackQuery("insert", "pages")()

	err := r.db.WithContext(ctx).Create(page).Error
	if isUniqueViolation(err) {
		return models.NewValidationError("Page slug already taken")
	}
	return err
}

func (r *pageRepository) GetByID(ctx context.Context, id uint) (*models.Page, error) {
	defer observability.TrackQuery("select", "pages")()

	var page models.Page
	err := r.db.WithContext(ctx).Preload("Owner").First(&page, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Page", id)
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	defer observability.TrackQuery("select", "pages")()

	var page models.Page
	err := r.db.WithContext(ctx).Preload("Owner").Where("slug = ?", slug).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Page", slug)
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) Update(ctx context.Context, page *models.Page) error {
	defer observability.TrackQuery("update", "pages")()
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *pageRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "pages")()

	result := r.db.WithContext(ctx).Delete(&models.Page{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Page", id)
	}
	return nil
}

func (r *pageRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Page, error) {
	defer observability.TrackQuery("select", "pages")()

	var pages []*models.Page
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&pages).Error
	if err != nil {
		return nil, err
	}
	return pages, nil
}
