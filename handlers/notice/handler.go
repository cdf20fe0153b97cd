package notice

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// NoticeHandler handles the academy notice board
type NoticeHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(db *gorm.DB) *NoticeHandler {
	return &NoticeHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// NoticeRequest is the create/update payload for a notice
type NoticeRequest struct {
	Title     string     `json:"title" validate:"required,min=1,max=255"`
	Content   string     `json:"content"`
	Pinned    bool       `json:"pinned"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// List returns the academy's notices, pinned first
func (h *NoticeHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Notice{}).
		Where("academy_id = ?", middleware.AcademyID(c))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count notices")
	}

	var notices []model.Notice
	err := query.
		Order("pinned DESC, published_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notices).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notices")
	}

	return response.Paginated(c, notices, response.CalculatePagination(page, limit, total))
}

// Get returns one notice
func (h *NoticeHandler) Get(c *fiber.Ctx) error {
	notice, err := h.findNotice(c)
	if err != nil {
		return response.NotFound(c, "Notice not found")
	}
	return response.Success(c, notice)
}

// Create posts a notice
func (h *NoticeHandler) Create(c *fiber.Ctx) error {
	var req NoticeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	notice := model.Notice{
		AcademyID:   middleware.AcademyID(c),
		AuthorID:    middleware.UserID(c),
		Title:       req.Title,
		Content:     req.Content,
		Pinned:      req.Pinned,
		PublishedAt: time.Now(),
		ExpiresAt:   req.ExpiresAt,
	}
	if err := h.db.Create(&notice).Error; err != nil {
		return response.InternalServerError(c, "Failed to create notice")
	}

	return response.Created(c, notice)
}

// Update modifies a notice
func (h *NoticeHandler) Update(c *fiber.Ctx) error {
	notice, err := h.findNotice(c)
	if err != nil {
		return response.NotFound(c, "Notice not found")
	}

	var req NoticeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	notice.Title = req.Title
	notice.Content = req.Content
	notice.Pinned = req.Pinned
	notice.ExpiresAt = req.ExpiresAt

	if err := h.db.Save(notice).Error; err != nil {
		return response.InternalServerError(c, "Failed to update notice")
	}

	return response.Success(c, notice)
}

// Delete removes a notice
func (h *NoticeHandler) Delete(c *fiber.Ctx) error {
	notice, err := h.findNotice(c)
	if err != nil {
		return response.NotFound(c, "Notice not found")
	}

	if err := h.db.Delete(notice).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete notice")
	}

	return response.SuccessWithMessage(c, "Notice deleted", nil)
}

func (h *NoticeHandler) findNotice(c *fiber.Ctx) (*model.Notice, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, err
	}

	var notice model.Notice
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&notice).Error
	if err != nil {
		return nil, err
	}
	return &notice, nil
}
