package server

import (
	"commune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?sort=&limit=&cursor=
//
// Authenticated viewers get the two-phase composed feed (followed content
// first, then backfill); anonymous viewers get the public pool. The response
// carries an opaque next_cursor for the following page.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	params, err := s.parseFeedParams(c)
	if err != nil {
		return nil
	}

	page, err := s.feedService.GetFeed(c.UserContext(), service.FeedRequest{
		ViewerID:           currentUserID(c),
		Sort:               params.Sort,
		Limit:              params.Limit,
		Cursor:             params.Cursor,
		WantLikeStatus:     c.QueryBool("like_status", true),
		WantBookmarkStatus: c.QueryBool("bookmark_status", true),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}
