package analysis

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
	"github.com/hakwonplus/hakwon-api/utils/validation"
)

// AnalysisHandler serves the weakness analysis and action plan endpoints
type AnalysisHandler struct {
	db        *gorm.DB
	analysis  *services.AnalysisService
	quota     *services.QuotaService
	validator *validation.Validator
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(db *gorm.DB, analysis *services.AnalysisService, quota *services.QuotaService) *AnalysisHandler {
	return &AnalysisHandler{
		db:        db,
		analysis:  analysis,
		quota:     quota,
		validator: validation.NewValidator(),
	}
}

// AnalyzeRequest tunes one analysis run
type AnalyzeRequest struct {
	PeriodStart    *time.Time `json:"period_start,omitempty"`
	PeriodEnd      *time.Time `json:"period_end,omitempty"`
	Subjects       []string   `json:"subjects,omitempty"`
	IncludeSummary bool       `json:"include_summary"`
	UseAI          bool       `json:"use_ai"`
}

// ActionPlanRequest tunes plan generation
type ActionPlanRequest struct {
	AnalyzeRequest
	PlanWeeks      int      `json:"plan_weeks,omitempty" validate:"omitempty,gte=1,lte=12"`
	DailyStudyTime int      `json:"daily_study_time,omitempty" validate:"omitempty,gte=10,lte=480"`
	FocusSubjects  []string `json:"focus_subjects,omitempty"`
}

// Analyze runs the weakness analysis for a student.
// AI usage is quota-gated: once the daily cap is reached the analysis still
// runs, on the heuristic path.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	useAI := h.consumeQuotaIfRequested(c, req.UseAI)

	result, err := h.analysis.AnalyzeStudent(c.Context(), studentID, services.AnalyzeOptions{
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		Subjects:       req.Subjects,
		IncludeSummary: req.IncludeSummary,
		UseAI:          useAI,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to analyze student")
	}

	return response.Success(c, result)
}

// ActionPlan runs an analysis and derives a study plan from it
func (h *AnalysisHandler) ActionPlan(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	var req ActionPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	useAI := h.consumeQuotaIfRequested(c, req.UseAI)

	plan, err := h.analysis.BuildActionPlan(c.Context(), studentID,
		services.AnalyzeOptions{
			PeriodStart: req.PeriodStart,
			PeriodEnd:   req.PeriodEnd,
			Subjects:    req.Subjects,
			UseAI:       useAI,
		},
		services.ActionPlanOptions{
			PlanWeeks:      req.PlanWeeks,
			DailyStudyTime: req.DailyStudyTime,
			FocusSubjects:  req.FocusSubjects,
		})
	if err != nil {
		return response.InternalServerError(c, "Failed to build action plan")
	}

	return response.Success(c, plan)
}

// WrongAnswers returns the raw wrong-answer list for review screens
func (h *AnalysisHandler) WrongAnswers(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return response.NotFound(c, "Student not found")
	}

	opts := services.AnalyzeOptions{}
	if start := c.Query("period_start"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return response.BadRequest(c, "period_start must be RFC3339")
		}
		opts.PeriodStart = &t
	}
	if end := c.Query("period_end"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return response.BadRequest(c, "period_end must be RFC3339")
		}
		opts.PeriodEnd = &t
	}
	if subject := c.Query("subject"); subject != "" {
		opts.Subjects = []string{subject}
	}

	wrongAnswers, err := h.analysis.WrongAnswers(c.Context(), studentID, opts)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch wrong answers")
	}

	return response.Success(c, fiber.Map{
		"student_id":    studentID,
		"total":         len(wrongAnswers),
		"wrong_answers": wrongAnswers,
	})
}

// Quota reports today's remaining AI analysis budget
func (h *AnalysisHandler) Quota(c *fiber.Ctx) error {
	remaining, err := h.quota.Remaining(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to read quota")
	}

	return response.Success(c, fiber.Map{
		"limit":     h.quota.Limit(),
		"remaining": remaining,
	})
}

// consumeQuotaIfRequested takes a quota unit when the caller asked for AI.
// Quota exhaustion or a quota-store failure degrades to the heuristic path
// rather than failing the request.
func (h *AnalysisHandler) consumeQuotaIfRequested(c *fiber.Ctx, requested bool) bool {
	if !requested {
		return false
	}
	allowed, err := h.quota.Consume(c.Context())
	if err != nil {
		log.Printf("AnalysisHandler: quota check failed, degrading to heuristics: %v", err)
		return false
	}
	if !allowed {
		log.Printf("AnalysisHandler: daily AI quota exhausted, degrading to heuristics")
	}
	return allowed
}

// studentID parses the path param and verifies the student belongs to the
// caller's academy.
func (h *AnalysisHandler) studentID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}

	var student model.Student
	err = h.db.
		Where("id = ? AND academy_id = ?", id, middleware.AcademyID(c)).
		First(&student).Error
	if err != nil {
		return 0, err
	}
	return student.ID, nil
}
