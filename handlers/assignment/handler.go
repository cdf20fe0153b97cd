package assignment

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// AssignmentHandler handles problem-set assignments and submissions
type AssignmentHandler struct {
	db        *gorm.DB
	grading   *services.GradingService
	validator *validation.Validator
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(db *gorm.DB, grading *services.GradingService) *AssignmentHandler {
	return &AssignmentHandler{
		db:        db,
		grading:   grading,
		validator: validation.NewValidator(),
	}
}

// CreateRequest hands a problem set out to a class. A submission row is
// created per enrolled student.
type CreateRequest struct {
	ClassID     uint       `json:"class_id" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject,omitempty" validate:"max=50"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProblemIDs  []uint     `json:"problem_ids" validate:"required,min=1"`
}

// SubmitRequest records a student's answers for an assignment
type SubmitRequest struct {
	StudentID uint              `json:"student_id" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
}

// SubmittedAnswer is one answer in a submission payload
type SubmittedAnswer struct {
	ProblemID uint   `json:"problem_id" validate:"required"`
	Answer    string `json:"answer"`
}

// List returns assignments for the academy, optionally filtered by class
func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Assignment{}).
		Joins("JOIN classes ON classes.id = assignments.class_id").
		Where("classes.academy_id = ?", middleware.AcademyID(c))
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("assignments.class_id = ?", classID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count assignments")
	}

	var assignments []model.Assignment
	err := query.Order("assignments.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&assignments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignments")
	}

	return response.Paginated(c, assignments, response.CalculatePagination(page, limit, total))
}

// Get returns one assignment with its submissions
func (h *AssignmentHandler) Get(c *fiber.Ctx) error {
	assignment, err := h.findAssignment(c, true)
	if err != nil {
		return response.NotFound(c, "Assignment not found")
	}
	return response.Success(c, assignment)
}

// Create hands out an assignment and seeds a submission row per enrolled
// student.
func (h *AssignmentHandler) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	academyID := middleware.AcademyID(c)

	var class model.Class
	if err := h.db.Where("id = ? AND academy_id = ?", req.ClassID, academyID).First(&class).Error; err != nil {
		return response.NotFound(c, "Class not found")
	}

	var problemCount int64
	err := h.db.Model(&model.Problem{}).
		Where("id IN ? AND academy_id = ?", req.ProblemIDs, academyID).
		Count(&problemCount).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to verify problems")
	}
	if problemCount != int64(len(req.ProblemIDs)) {
		return response.BadRequest(c, "Some problems do not belong to this academy")
	}

	problemIDs, err := json.Marshal(req.ProblemIDs)
	if err != nil {
		return response.BadRequest(c, "Invalid problem ids")
	}

	var enrollments []model.ClassEnrollment
	if err := h.db.Where("class_id = ?", class.ID).Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	assignment := model.Assignment{
		ClassID:     class.ID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		DueDate:     req.DueDate,
		ProblemIDs:  datatypes.JSON(problemIDs),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		for _, enrollment := range enrollments {
			submission := model.StudentAssignment{
				AssignmentID: assignment.ID,
				StudentID:    enrollment.StudentID,
				Status:       model.SubmissionAssigned,
			}
			if err := tx.Create(&submission).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create assignment")
	}

	return response.Created(c, assignment)
}

// Submit records a student's answers and grades them immediately
func (h *AssignmentHandler) Submit(c *fiber.Ctx) error {
	assignment, err := h.findAssignment(c, false)
	if err != nil {
		return response.NotFound(c, "Assignment not found")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	var submission model.StudentAssignment
	err = h.db.
		Where("assignment_id = ? AND student_id = ?", assignment.ID, req.StudentID).
		First(&submission).Error
	if err != nil {
		return response.NotFound(c, "This student was not assigned this work")
	}
	if submission.Status == model.SubmissionGraded {
		return response.Conflict(c, "This submission is already graded")
	}

	// Only answers to problems actually on the assignment are accepted
	allowed := make(map[uint]struct{})
	for _, id := range assignment.ProblemIDList() {
		allowed[id] = struct{}{}
	}
	answers := make([]model.SubmittedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		if _, ok := allowed[a.ProblemID]; !ok {
			return response.BadRequest(c, "Answer references a problem not on this assignment")
		}
		answers = append(answers, model.SubmittedAnswer{
			ProblemID: a.ProblemID,
			Answer:    a.Answer,
		})
	}

	if err := submission.SetAnswers(answers); err != nil {
		return response.InternalServerError(c, "Failed to encode answers")
	}
	now := time.Now()
	submission.Status = model.SubmissionSubmitted
	submission.SubmittedAt = &now

	if err := h.db.Save(&submission).Error; err != nil {
		return response.InternalServerError(c, "Failed to save submission")
	}

	graded, err := h.grading.GradeSubmission(c.Context(), submission.ID)
	if err != nil {
		// The submission is stored; the backlog cron job will grade it
		return response.SuccessWithMessage(c, "Submission saved, grading pending", submission)
	}

	return response.Success(c, graded)
}

// Grade re-runs auto-grading on a submitted assignment
func (h *AssignmentHandler) Grade(c *fiber.Ctx) error {
	submissionID, err := strconv.ParseUint(c.Params("submissionId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid submission id")
	}

	var submission model.StudentAssignment
	err = h.db.
		Joins("JOIN students ON students.id = student_assignments.student_id").
		Where("student_assignments.id = ? AND students.academy_id = ?", submissionID, middleware.AcademyID(c)).
		First(&submission).Error
	if err != nil {
		return response.NotFound(c, "Submission not found")
	}

	graded, err := h.grading.GradeSubmission(c.Context(), submission.ID)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, graded)
}

// Submissions lists the submissions of one assignment
func (h *AssignmentHandler) Submissions(c *fiber.Ctx) error {
	assignment, err := h.findAssignment(c, false)
	if err != nil {
		return response.NotFound(c, "Assignment not found")
	}

	var submissions []model.StudentAssignment
	err = h.db.
		Where("assignment_id = ?", assignment.ID).
		Order("student_id ASC").
		Find(&submissions).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch submissions")
	}

	return response.Success(c, submissions)
}

func (h *AssignmentHandler) findAssignment(c *fiber.Ctx, withSubmissions bool) (*model.Assignment, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, err
	}

	query := h.db.
		Joins("JOIN classes ON classes.id = assignments.class_id").
		Where("assignments.id = ? AND classes.academy_id = ?", id, middleware.AcademyID(c))
	if withSubmissions {
		query = query.Preload("Submissions")
	}

	var assignment model.Assignment
	if err := query.First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}
