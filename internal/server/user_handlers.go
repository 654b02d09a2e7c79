package server

import (
	"commune/internal/feed"
	"commune/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.Get(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name      *string `json:"name,omitempty"`
		Bio       *string `json:"bio,omitempty"`
		Avatar    *string `json:"avatar,omitempty"`
		IsPrivate *bool   `json:"is_private,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), userID, req.Name, req.Bio, req.Avatar, req.IsPrivate)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.Get(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts with the same sort, limit and
// cursor semantics as the home feed, scoped to one author.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	params, err := s.parseFeedParams(c)
	if err != nil {
		return nil
	}

	page, err := s.feedService.Scoped(c.UserContext(), currentUserID(c),
		feed.Scope{AuthorIDs: []uint{id}}, params.Sort, params.Limit, params.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}
