package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
)

// GradingService grades submitted assignments by comparing each answer
// against the problem catalog.
type GradingService struct {
	db *gorm.DB
}

// NewGradingService creates a grading service
func NewGradingService(db *gorm.DB) *GradingService {
	return &GradingService{db: db}
}

// GradeSubmission auto-grades one submitted assignment. Answers whose
// problem no longer exists keep a nil IsCorrect and are excluded from the
// score.
func (g *GradingService) GradeSubmission(ctx context.Context, submissionID uint) (*model.StudentAssignment, error) {
	var submission model.StudentAssignment
	if err := g.db.WithContext(ctx).First(&submission, submissionID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch submission %d: %w", submissionID, err)
	}
	if submission.Status != model.SubmissionSubmitted {
		return nil, fmt.Errorf("submission %d is %s, only submitted work can be graded", submissionID, submission.Status)
	}

	answers, err := submission.AnswerList()
	if err != nil {
		return nil, err
	}

	problemIDs := make([]uint, 0, len(answers))
	for _, ans := range answers {
		problemIDs = append(problemIDs, ans.ProblemID)
	}

	problems := make(map[uint]*model.Problem, len(problemIDs))
	if len(problemIDs) > 0 {
		var rows []model.Problem
		if err := g.db.WithContext(ctx).Where("id IN ?", problemIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch problems for grading: %w", err)
		}
		for i := range rows {
			problems[rows[i].ID] = &rows[i]
		}
	}

	total := 0
	correctCount := 0
	for i := range answers {
		problem, ok := problems[answers[i].ProblemID]
		if !ok {
			log.Printf("GradingService: submission %d references missing problem %d", submissionID, answers[i].ProblemID)
			continue
		}
		correct := normalizeAnswer(answers[i].Answer) == normalizeAnswer(problem.Answer)
		answers[i].IsCorrect = &correct
		total++
		if correct {
			correctCount++
		}
	}

	if err := submission.SetAnswers(answers); err != nil {
		return nil, err
	}
	now := time.Now()
	submission.Status = model.SubmissionGraded
	submission.GradedAt = &now
	submission.Score = CorrectRate(correctCount, total)

	if err := g.db.WithContext(ctx).Save(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to save graded submission: %w", err)
	}

	log.Printf("GradingService: graded submission %d: %d/%d correct, score %d", submissionID, correctCount, total, submission.Score)
	return &submission, nil
}

// normalizeAnswer makes answer comparison tolerant of case and spacing
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
