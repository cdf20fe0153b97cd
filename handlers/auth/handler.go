package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/auth"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// AuthHandler handles staff authentication
type AuthHandler struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
	validator  *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
		validator:  validation.NewValidator(),
	}
}

// RegisterRequest creates a new academy together with its admin account
type RegisterRequest struct {
	AcademyName string `json:"academy_name" validate:"required,min=2,max=255"`
	OwnerName   string `json:"owner_name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Phone       string `json:"phone,omitempty"`
}

// LoginRequest represents a staff login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse represents a successful login or refresh response
type TokenResponse struct {
	User         *model.User `json:"user,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // in seconds
}

// Register creates an academy and its first admin account
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "An account with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	var user model.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		academy := model.Academy{
			Name:      req.AcademyName,
			OwnerName: req.OwnerName,
			Phone:     req.Phone,
		}
		if err := tx.Create(&academy).Error; err != nil {
			return err
		}

		user = model.User{
			AcademyID:    academy.ID,
			Email:        req.Email,
			PasswordHash: hash,
			Name:         req.OwnerName,
			Role:         "admin",
			Phone:        req.Phone,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create academy")
	}

	return h.issueTokens(c, &user, true)
}

// Login handles staff login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return response.Unauthorized(c, "Invalid email or password")
	}

	return h.issueTokens(c, &user, false)
}

// Refresh exchanges a refresh token for a new token pair
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid token type")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "Account no longer exists")
	}

	return h.issueTokens(c, &user, false)
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	var user model.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		return response.NotFound(c, "Account not found")
	}
	return response.Success(c, user)
}

func (h *AuthHandler) issueTokens(c *fiber.Ctx, user *model.User, created bool) error {
	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.AcademyID, user.Email, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID, user.AcademyID, user.Email, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := TokenResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int((24 * time.Hour).Seconds()),
	}
	if created {
		return response.Created(c, res)
	}
	return response.Success(c, res)
}
