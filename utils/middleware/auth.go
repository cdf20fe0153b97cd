package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/auth"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication for staff accounts
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

// Required is middleware that requires a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.TokenType != "access" {
			return response.Unauthorized(c, "Invalid token type")
		}

		// Verify the account still exists
		var user model.User
		if err := m.db.First(&user, claims.UserID).Error; err != nil {
			return response.Unauthorized(c, "Account no longer exists")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("academy_id", claims.AcademyID)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// AdminOnly requires the authenticated account to carry the admin role.
// Must be chained after Required.
func (m *AuthMiddleware) AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != "admin" {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Required
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

// AcademyID returns the authenticated academy id stored by Required
func AcademyID(c *fiber.Ctx) uint {
	id, _ := c.Locals("academy_id").(uint)
	return id
}
