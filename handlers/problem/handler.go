package problem

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// ProblemHandler handles the problem catalog
type ProblemHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(db *gorm.DB) *ProblemHandler {
	return &ProblemHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ProblemRequest is the create/update payload for a catalog problem
type ProblemRequest struct {
	Subject     string   `json:"subject" validate:"required,max=50"`
	Grade       string   `json:"grade,omitempty" validate:"max=20"`
	Unit        string   `json:"unit" validate:"required,max=100"`
	Content     string   `json:"content" validate:"required"`
	Answer      string   `json:"answer" validate:"required"`
	Explanation string   `json:"explanation,omitempty"`
	Difficulty  string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	ProblemType string   `json:"problem_type,omitempty" validate:"omitempty,oneof=multiple_choice short_answer essay"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source,omitempty" validate:"max=100"`
}

// List returns catalog problems with filters and pagination
func (h *ProblemHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Problem{}).
		Where("academy_id = ?", middleware.AcademyID(c))
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if unit := c.Query("unit"); unit != "" {
		query = query.Where("unit = ?", unit)
	}
	if grade := c.Query("grade"); grade != "" {
		query = query.Where("grade = ?", grade)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		if !model.Difficulty(difficulty).IsValid() {
			return response.BadRequest(c, "Invalid difficulty")
		}
		query = query.Where("difficulty = ?", difficulty)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("content ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count problems")
	}

	var problems []model.Problem
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch problems")
	}

	return response.Paginated(c, problems, response.CalculatePagination(page, limit, total))
}

// Units returns the distinct units of a subject, for filter dropdowns
func (h *ProblemHandler) Units(c *fiber.Ctx) error {
	subject := c.Query("subject")
	if subject == "" {
		return response.BadRequest(c, "subject query parameter is required")
	}

	var units []string
	err := h.db.Model(&model.Problem{}).
		Where("academy_id = ? AND subject = ?", middleware.AcademyID(c), subject).
		Distinct().
		Order("unit ASC").
		Pluck("unit", &units).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch units")
	}

	return response.Success(c, units)
}

// Get returns one problem
func (h *ProblemHandler) Get(c *fiber.Ctx) error {
	problem, err := h.findProblem(c)
	if err != nil {
		return response.NotFound(c, "Problem not found")
	}
	return response.Success(c, problem)
}

// Create adds a problem to the catalog
func (h *ProblemHandler) Create(c *fiber.Ctx) error {
	var req ProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	tags, err := json.Marshal(req.Tags)
	if err != nil {
		return response.BadRequest(c, "Invalid tags")
	}

	problem := model.Problem{
		AcademyID:   middleware.AcademyID(c),
		Subject:     req.Subject,
		Grade:       req.Grade,
		Unit:        req.Unit,
		Content:     req.Content,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		Difficulty:  model.Difficulty(req.Difficulty),
		ProblemType: req.ProblemType,
		Tags:        datatypes.JSON(tags),
		Source:      req.Source,
		CreatedBy:   middleware.UserID(c),
	}
	if err := h.db.Create(&problem).Error; err != nil {
		return response.InternalServerError(c, "Failed to create problem")
	}

	return response.Created(c, problem)
}

// Update modifies a catalog problem
func (h *ProblemHandler) Update(c *fiber.Ctx) error {
	problem, err := h.findProblem(c)
	if err != nil {
		return response.NotFound(c, "Problem not found")
	}

	var req ProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	tags, err := json.Marshal(req.Tags)
	if err != nil {
		return response.BadRequest(c, "Invalid tags")
	}

	problem.Subject = req.Subject
	problem.Grade = req.Grade
	problem.Unit = req.Unit
	problem.Content = req.Content
	problem.Answer = req.Answer
	problem.Explanation = req.Explanation
	problem.Difficulty = model.Difficulty(req.Difficulty)
	problem.ProblemType = req.ProblemType
	problem.Tags = datatypes.JSON(tags)
	problem.Source = req.Source

	if err := h.db.Save(problem).Error; err != nil {
		return response.InternalServerError(c, "Failed to update problem")
	}

	return response.Success(c, problem)
}

// Delete soft-deletes a problem. Past submissions keep referencing the id;
// the analysis join reports those as unmatched rather than failing.
func (h *ProblemHandler) Delete(c *fiber.Ctx) error {
	problem, err := h.findProblem(c)
	if err != nil {
		return response.NotFound(c, "Problem not found")
	}

	if err := h.db.Delete(problem).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete problem")
	}

	return response.SuccessWithMessage(c, "Problem deleted", nil)
}

func (h *ProblemHandler) findProblem(c *fiber.Ctx) (*model.Problem, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, err
	}

	var problem model.Problem
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&problem).Error
	if err != nil {
		return nil, err
	}
	return &problem, nil
}
