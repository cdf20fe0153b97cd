package worksheet

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// WorksheetHandler handles printable worksheet composition
type WorksheetHandler struct {
	db        *gorm.DB
	worksheet *services.WorksheetService
	validator *validation.Validator
}

// NewWorksheetHandler creates a new worksheet handler
func NewWorksheetHandler(db *gorm.DB, worksheet *services.WorksheetService) *WorksheetHandler {
	return &WorksheetHandler{
		db:        db,
		worksheet: worksheet,
		validator: validation.NewValidator(),
	}
}

// CreateRequest composes a worksheet from catalog problems
type CreateRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Subject    string `json:"subject,omitempty" validate:"max=50"`
	ProblemIDs []uint `json:"problem_ids" validate:"required,min=1,max=50"`
	WithAnswer bool   `json:"with_answer"`
}

// List returns the academy's worksheets, newest first
func (h *WorksheetHandler) List(c *fiber.Ctx) error {
	var worksheets []model.Worksheet
	err := h.db.
		Where("academy_id = ?", middleware.AcademyID(c)).
		Order("created_at DESC").
		Limit(50).
		Find(&worksheets).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch worksheets")
	}
	return response.Success(c, worksheets)
}

// Get returns one worksheet; clients poll this until rendering finishes
func (h *WorksheetHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid worksheet id")
	}

	worksheet, err := h.worksheet.GetWorksheet(c.Context(), middleware.AcademyID(c), uint(id))
	if err != nil {
		return response.NotFound(c, "Worksheet not found")
	}
	return response.Success(c, worksheet)
}

// Create composes a worksheet and starts background PDF rendering
func (h *WorksheetHandler) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	worksheet, err := h.worksheet.CreateWorksheet(
		c.Context(),
		middleware.AcademyID(c),
		middleware.UserID(c),
		req.Title,
		req.Subject,
		req.ProblemIDs,
		req.WithAnswer,
	)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, worksheet)
}
