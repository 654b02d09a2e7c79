package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follows/:userId
// Following a public account creates the follow immediately; following a
// private one files a pending request.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	result, err := s.followService.Follow(c.UserContext(), userID, targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// UnfollowUser handles DELETE /api/follows/:userId
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), userID, targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.Followers(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.Following(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetFollowRequests handles GET /api/follows/requests
func (s *Server) GetFollowRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	reqs, err := s.followService.PendingRequests(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(reqs)
}

// AcceptFollowRequest handles POST /api/follows/requests/:requestId/accept
func (s *Server) AcceptFollowRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if err := s.followService.Decide(c.UserContext(), userID, requestID, true); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}

// DeclineFollowRequest handles POST /api/follows/requests/:requestId/decline
func (s *Server) DeclineFollowRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if err := s.followService.Decide(c.UserContext(), userID, requestID, false); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "declined"})
}

// FollowPage handles POST /api/pages/:id/follow
func (s *Server) FollowPage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	pageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.FollowPage(c.UserContext(), userID, pageID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowPage handles DELETE /api/pages/:id/follow
func (s *Server) UnfollowPage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	pageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.UnfollowPage(c.UserContext(), userID, pageID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
