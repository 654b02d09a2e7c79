package server

import (
	"errors"
	"strings"
	"unicode"

	"commune/internal/feed"
	"commune/internal/models"
	"commune/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "requestId" -> "request ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// feedParams are the validated pagination inputs common to every feed-shaped
// endpoint.
type feedParams struct {
	Sort   feed.SortMode
	Limit  int
	Cursor *feed.Cursor
}

// parseFeedParams validates sort, limit and cursor query parameters.
// An unknown sort or an undecodable cursor writes a 400 response and returns
// errResponseWritten; the crawl is never silently restarted.
func (s *Server) parseFeedParams(c *fiber.Ctx) (feedParams, error) {
	sort, ok := feed.ParseSortMode(c.Query("sort"))
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid sort mode"))
		return feedParams{}, errResponseWritten
	}

	params := feedParams{
		Sort:  sort,
		Limit: c.QueryInt("limit", 0),
	}

	if token := c.Query("cursor"); token != "" {
		cursor, err := feed.DecodeCursor(token)
		if err != nil {
			observability.FeedInvalidCursors.Inc()
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewInvalidCursorError())
			return feedParams{}, errResponseWritten
		}
		params.Cursor = &cursor
	}
	return params, nil
}

// currentUserID returns the authenticated viewer id, zero when anonymous.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// respondServiceError maps the service layer's error taxonomy onto HTTP
// status codes.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status := fiber.StatusInternalServerError
		switch appErr.Code {
		case "VALIDATION_ERROR", "INVALID_CURSOR":
			status = fiber.StatusBadRequest
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		case "FORBIDDEN":
			status = fiber.StatusForbidden
		}
		return models.RespondWithError(c, status, appErr)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
