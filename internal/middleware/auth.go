package middleware

import (
	"strconv"
	"strings"

	"commune/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// userIDFromBearer validates the Authorization header and returns the user id
// from the token's "sub" claim.
func userIDFromBearer(c *fiber.Ctx) (uint, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	subClaim, ok := claims["sub"]
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing subject")
	}
	subStr, ok := subClaim.(string)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject type")
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	return uint(userIDVal), nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	userID, err := userIDFromBearer(c)
	if err != nil {
		fe, _ := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	c.Locals("userID", userID)
	return c.Next()
}

// OptionalAuth resolves the viewer if a valid token is present and proceeds
// anonymously otherwise. The feed uses this: the same endpoint serves both
// logged-in and logged-out visitors.
func OptionalAuth(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	userID, err := userIDFromBearer(c)
	if err != nil {
		// A present-but-invalid token is rejected rather than silently
		// downgraded to anonymous.
		fe, _ := err.(*fiber.Error)
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	c.Locals("userID", userID)
	return c.Next()
}
