package academy

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/auth"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// AcademyHandler handles academy profile and teacher account management
type AcademyHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAcademyHandler creates a new academy handler
func NewAcademyHandler(db *gorm.DB) *AcademyHandler {
	return &AcademyHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// UpdateAcademyRequest is the academy profile update payload
type UpdateAcademyRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	OwnerName string `json:"owner_name,omitempty" validate:"max=100"`
	Address   string `json:"address,omitempty" validate:"max=500"`
	Phone     string `json:"phone,omitempty" validate:"max=20"`
}

// CreateTeacherRequest creates a teacher account inside the academy
type CreateTeacherRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Subject  string `json:"subject,omitempty" validate:"max=50"`
	Phone    string `json:"phone,omitempty" validate:"max=20"`
}

// Get returns the academy profile
func (h *AcademyHandler) Get(c *fiber.Ctx) error {
	var academy model.Academy
	if err := h.db.First(&academy, middleware.AcademyID(c)).Error; err != nil {
		return response.NotFound(c, "Academy not found")
	}
	return response.Success(c, academy)
}

// Update modifies the academy profile. Admin only.
func (h *AcademyHandler) Update(c *fiber.Ctx) error {
	var academy model.Academy
	if err := h.db.First(&academy, middleware.AcademyID(c)).Error; err != nil {
		return response.NotFound(c, "Academy not found")
	}

	var req UpdateAcademyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	academy.Name = req.Name
	academy.OwnerName = req.OwnerName
	academy.Address = req.Address
	academy.Phone = req.Phone

	if err := h.db.Save(&academy).Error; err != nil {
		return response.InternalServerError(c, "Failed to update academy")
	}

	return response.Success(c, academy)
}

// ListTeachers returns the academy's staff accounts
func (h *AcademyHandler) ListTeachers(c *fiber.Ctx) error {
	var teachers []model.User
	err := h.db.
		Where("academy_id = ?", middleware.AcademyID(c)).
		Order("name ASC").
		Find(&teachers).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch teachers")
	}
	return response.Success(c, teachers)
}

// CreateTeacher adds a teacher account. Admin only.
func (h *AcademyHandler) CreateTeacher(c *fiber.Ctx) error {
	var req CreateTeacherRequest
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

	teacher := model.User{
		AcademyID:    middleware.AcademyID(c),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         "teacher",
		Subject:      req.Subject,
		Phone:        req.Phone,
	}
	if err := h.db.Create(&teacher).Error; err != nil {
		return response.InternalServerError(c, "Failed to create teacher")
	}

	return response.Created(c, teacher)
}

// DeleteTeacher removes a teacher account. Admin only; admins cannot remove
// themselves.
func (h *AcademyHandler) DeleteTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid teacher id")
	}
	if uint(id) == middleware.UserID(c) {
		return response.BadRequest(c, "You cannot delete your own account")
	}

	var teacher model.User
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&teacher).Error
	if err != nil {
		return response.NotFound(c, "Teacher not found")
	}

	if err := h.db.Delete(&teacher).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete teacher")
	}

	return response.SuccessWithMessage(c, "Teacher deleted", nil)
}
