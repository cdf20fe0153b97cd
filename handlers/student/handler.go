package student

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

// StudentHandler handles student roster management
type StudentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB) *StudentHandler {
	return &StudentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// StudentRequest is the create/update payload for a student
type StudentRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Grade       string   `json:"grade,omitempty" validate:"max=20"`
	School      string   `json:"school,omitempty" validate:"max=100"`
	Phone       string   `json:"phone,omitempty" validate:"max=20"`
	ParentPhone string   `json:"parent_phone,omitempty" validate:"max=20"`
	Subjects    []string `json:"subjects,omitempty"`
}

// List returns the academy's students with pagination
func (h *StudentHandler) List(c *fiber.Ctx) error {
	academyID := middleware.AcademyID(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Student{}).Where("academy_id = ?", academyID)
	if grade := c.Query("grade"); grade != "" {
		query = query.Where("grade = ?", grade)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count students")
	}

	var students []model.Student
	err := query.Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&students).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.Paginated(c, students, response.CalculatePagination(page, limit, total))
}

// Get returns one student
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	student, err := h.findStudent(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}
	return response.Success(c, student)
}

// Create adds a student to the roster
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	subjects, err := json.Marshal(req.Subjects)
	if err != nil {
		return response.BadRequest(c, "Invalid subjects")
	}

	student := model.Student{
		AcademyID:   middleware.AcademyID(c),
		Name:        req.Name,
		Grade:       req.Grade,
		School:      req.School,
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
		Subjects:    datatypes.JSON(subjects),
		Active:      true,
	}
	if err := h.db.Create(&student).Error; err != nil {
		return response.InternalServerError(c, "Failed to create student")
	}

	return response.Created(c, student)
}

// Update modifies a student record
func (h *StudentHandler) Update(c *fiber.Ctx) error {
	student, err := h.findStudent(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	subjects, err := json.Marshal(req.Subjects)
	if err != nil {
		return response.BadRequest(c, "Invalid subjects")
	}

	student.Name = req.Name
	student.Grade = req.Grade
	student.School = req.School
	student.Phone = req.Phone
	student.ParentPhone = req.ParentPhone
	student.Subjects = datatypes.JSON(subjects)

	if err := h.db.Save(student).Error; err != nil {
		return response.InternalServerError(c, "Failed to update student")
	}

	return response.Success(c, student)
}

// Deactivate marks a student as no longer enrolled, keeping history intact
func (h *StudentHandler) Deactivate(c *fiber.Ctx) error {
	student, err := h.findStudent(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	student.Active = false
	if err := h.db.Save(student).Error; err != nil {
		return response.InternalServerError(c, "Failed to deactivate student")
	}

	return response.SuccessWithMessage(c, "Student deactivated", student)
}

// Delete soft-deletes a student
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	student, err := h.findStudent(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	if err := h.db.Delete(student).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete student")
	}

	return response.SuccessWithMessage(c, "Student deleted", nil)
}

func (h *StudentHandler) findStudent(c *fiber.Ctx) (*model.Student, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, err
	}

	var student model.Student
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}
