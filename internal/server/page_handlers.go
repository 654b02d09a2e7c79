package server

import (
	"commune/internal/feed"
	"commune/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePage handles POST /api/pages
func (s *Server) CreatePage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	page, err := s.pageService.Create(c.UserContext(), userID, req.Name, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

// GetPage handles GET /api/pages/:slug
func (s *Server) GetPage(c *fiber.Ctx) error {
	page, err := s.pageService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetPagePosts handles GET /api/pages/:slug/posts
func (s *Server) GetPagePosts(c *fiber.Ctx) error {
	page, err := s.pageService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	params, err := s.parseFeedParams(c)
	if err != nil {
		return nil
	}

	feedPage, err := s.feedService.Scoped(c.UserContext(), currentUserID(c),
		feed.Scope{PageIDs: []uint{page.ID}}, params.Sort, params.Limit, params.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(feedPage)
}

// GetMyPages handles GET /api/me/pages
func (s *Server) GetMyPages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	pages, err := s.pageService.ListByOwner(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pages)
}

// UpdatePage handles PUT /api/pages/:id
func (s *Server) UpdatePage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	pageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Avatar      *string `json:"avatar,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	page, err := s.pageService.Update(c.UserContext(), userID, pageID, req.Name, req.Description, req.Avatar)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// DeletePage handles DELETE /api/pages/:id
func (s *Server) DeletePage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	pageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	isAdmin, _ := s.isAdminByUserID(c.UserContext(), userID)
	if err := s.pageService.Delete(c.UserContext(), userID, pageID, isAdmin); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
