package service

import (
	"context"
	"strings"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"

	"github.com/google/uuid"
)

// slugify turns a display name into a URL slug. A short random suffix keeps
// slugs unique without a retry loop on the unique index.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "page"
	}
	return slug + "-" + uuid.NewString()[:8]
}

// PageService handles brand/organization pages.
type PageService interface {
	Create(ctx context.Context, ownerID uint, name, description string) (*models.Page, error)
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	Update(ctx context.Context, userID, pageID uint, name, description, avatar *string) (*models.Page, error)
	Delete(ctx context.Context, userID, pageID uint, isAdmin bool) error
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Page, error)
}

type pageService struct {
	pages repository.PageRepository
	audit repository.AuditRepository
}

// NewPageService creates the page service.
func NewPageService(pages repository.PageRepository, audit repository.AuditRepository) PageService {
	return &pageService{pages: pages, audit: audit}
}

func (s *pageService) Create(ctx context.Context, ownerID uint, name, description string) (*models.Page, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Page name cannot be empty")
	}

	page := &models.Page{
		Name:        name,
		Slug:        slugify(name),
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	err := cache.Aside(ctx, cache.PageKey(slug), &page, cache.PageTTL, func() error {
		p, err := s.pages.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		page = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *pageService) Update(ctx context.Context, userID, pageID uint, name, description, avatar *string) (*models.Page, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page.OwnerID != userID {
		return nil, models.NewForbiddenError("Only the page owner can edit it")
	}

	if name != nil && strings.TrimSpace(*name) != "" {
		page.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		page.Description = *description
	}
	if avatar != nil {
		page.Avatar = *avatar
	}

	if err := s.pages.Update(ctx, page); err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.PageKey(page.Slug))
	return page, nil
}

func (s *pageService) Delete(ctx context.Context, userID, pageID uint, isAdmin bool) error {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page.OwnerID != userID && !isAdmin {
		return models.NewForbiddenError("Only the page owner can delete it")
	}

	if err := s.pages.Delete(ctx, pageID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PageKey(page.Slug))

	entry := &models.AuditLog{ActorID: userID, Action: "delete", EntityType: "page", EntityID: pageID}
	_ = s.audit.Record(ctx, entry)
	return nil
}

func (s *pageService) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Page, error) {
	pages, err := s.pages.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return pages, nil
}
