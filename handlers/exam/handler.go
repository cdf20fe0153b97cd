package exam

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

// ExamHandler handles exams and score recording
type ExamHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewExamHandler creates a new exam handler
func NewExamHandler(db *gorm.DB) *ExamHandler {
	return &ExamHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ExamRequest is the create/update payload for an exam
type ExamRequest struct {
	ClassID  *uint     `json:"class_id,omitempty"` // Omit for academy-wide exams
	Name     string    `json:"name" validate:"required,min=1,max=255"`
	Subject  string    `json:"subject,omitempty" validate:"max=50"`
	ExamDate time.Time `json:"exam_date" validate:"required"`
	MaxScore int       `json:"max_score" validate:"omitempty,gte=1,lte=1000"`
}

// ResultRequest records one student's score
type ResultRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Score     int    `json:"score" validate:"gte=0"`
	Note      string `json:"note,omitempty"`
}

// List returns the academy's exams
func (h *ExamHandler) List(c *fiber.Ctx) error {
	query := h.db.
		Where("academy_id = ?", middleware.AcademyID(c))
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	var exams []model.Exam
	if err := query.Order("exam_date DESC").Find(&exams).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch exams")
	}
	return response.Success(c, exams)
}

// Get returns one exam with its results
func (h *ExamHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid exam id")
	}

	var exam model.Exam
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		Preload("Results.Student").
		First(&exam).Error
	if err != nil {
		return response.NotFound(c, "Exam not found")
	}
	return response.Success(c, exam)
}

// Create adds an exam
func (h *ExamHandler) Create(c *fiber.Ctx) error {
	var req ExamRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	academyID := middleware.AcademyID(c)
	if req.ClassID != nil {
		var class model.Class
		if err := h.db.Where("id = ? AND academy_id = ?", *req.ClassID, academyID).First(&class).Error; err != nil {
			return response.BadRequest(c, "Class does not belong to this academy")
		}
	}

	maxScore := req.MaxScore
	if maxScore == 0 {
		maxScore = 100
	}

	exam := model.Exam{
		AcademyID: academyID,
		ClassID:   req.ClassID,
		Name:      req.Name,
		Subject:   req.Subject,
		ExamDate:  req.ExamDate,
		MaxScore:  maxScore,
	}
	if err := h.db.Create(&exam).Error; err != nil {
		return response.InternalServerError(c, "Failed to create exam")
	}

	return response.Created(c, exam)
}

// Delete removes an exam and its results
func (h *ExamHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid exam id")
	}

	var exam model.Exam
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&exam).Error
	if err != nil {
		return response.NotFound(c, "Exam not found")
	}

	if err := h.db.Delete(&exam).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete exam")
	}

	return response.SuccessWithMessage(c, "Exam deleted", nil)
}

// RecordResult records or updates one student's score on an exam
func (h *ExamHandler) RecordResult(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid exam id")
	}

	academyID := middleware.AcademyID(c)
	var exam model.Exam
	err = h.db.
		Where("id = ? AND academy_id = ?", id, academyID).
		First(&exam).Error
	if err != nil {
		return response.NotFound(c, "Exam not found")
	}

	var req ResultRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}
	if req.Score > exam.MaxScore {
		return response.BadRequest(c, "Score exceeds the exam's maximum")
	}

	var student model.Student
	if err := h.db.Where("id = ? AND academy_id = ?", req.StudentID, academyID).First(&student).Error; err != nil {
		return response.BadRequest(c, "Student does not belong to this academy")
	}

	var result model.ExamResult
	err = h.db.Where("exam_id = ? AND student_id = ?", exam.ID, req.StudentID).First(&result).Error
	if err == nil {
		result.Score = req.Score
		result.Note = req.Note
		if err := h.db.Save(&result).Error; err != nil {
			return response.InternalServerError(c, "Failed to update result")
		}
		return response.Success(c, result)
	}

	result = model.ExamResult{
		ExamID:    exam.ID,
		StudentID: req.StudentID,
		Score:     req.Score,
		Note:      req.Note,
	}
	if err := h.db.Create(&result).Error; err != nil {
		return response.InternalServerError(c, "Failed to record result")
	}

	return response.Created(c, result)
}
