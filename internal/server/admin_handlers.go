package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetAuditLog handles GET /api/admin/audit/:entityType/:entityId
func (s *Server) GetAuditLog(c *fiber.Ctx) error {
	entityID, err := s.parseID(c, "entityId")
	if err != nil {
		return nil
	}

	limit := c.QueryInt("limit", 50)
	entries, err := s.auditRepo.ListByEntity(c.UserContext(), c.Params("entityType"), entityID, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}
