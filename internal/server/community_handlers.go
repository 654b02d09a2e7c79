package server

import (
	"commune/internal/feed"
	"commune/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.Create(c.UserContext(), userID, req.Name, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunity handles GET /api/communities/:slug
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	community, err := s.communityService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(community)
}

// GetCommunityPosts handles GET /api/communities/:slug/posts
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	community, err := s.communityService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	params, err := s.parseFeedParams(c)
	if err != nil {
		return nil
	}

	page, err := s.feedService.Scoped(c.UserContext(), currentUserID(c),
		feed.Scope{CommunityIDs: []uint{community.ID}}, params.Sort, params.Limit, params.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// JoinCommunity handles POST /api/communities/:id/join
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.Join(c.UserContext(), communityID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"joined": true})
}

// LeaveCommunity handles DELETE /api/communities/:id/join
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.Leave(c.UserContext(), communityID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCommunityMembers handles GET /api/communities/:id/members
func (s *Server) GetCommunityMembers(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.communityService.Members(c.UserContext(), communityID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(members)
}

// UpdateCommunity handles PUT /api/communities/:id
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	communityID, err := s.parseID(c, "id")
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

	community, err := s.communityService.Update(c.UserContext(), userID, communityID, req.Name, req.Description, req.Avatar)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(community)
}

// DeleteCommunity handles DELETE /api/communities/:id
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	isAdmin, _ := s.isAdminByUserID(c.UserContext(), userID)
	if err := s.communityService.Delete(c.UserContext(), userID, communityID, isAdmin); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
