package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/model"
)

// AnalysisRepository is the data access surface of the analysis pipeline.
// The orchestrator depends on this interface so tests can swap in fakes.
type AnalysisRepository interface {
	FetchStudent(ctx context.Context, studentID uint) (*model.Student, error)
	FetchStudentStats(ctx context.Context, studentID uint, period Period, subjects []string) (*StatsBundle, error)
	FetchWrongAnswers(ctx context.Context, studentID uint, period Period, subjects []string) ([]WrongAnswer, error)
}

// GormAnalysisRepository reads submissions and problems through GORM
type GormAnalysisRepository struct {
	db *gorm.DB
}

// NewGormAnalysisRepository creates the GORM-backed analysis repository
func NewGormAnalysisRepository(db *gorm.DB) *GormAnalysisRepository {
	return &GormAnalysisRepository{db: db}
}

// FetchStudent loads a student by id
func (r *GormAnalysisRepository) FetchStudent(ctx context.Context, studentID uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).First(&student, studentID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch student %d: %w", studentID, err)
	}
	return &student, nil
}

// FetchStudentStats aggregates the student's graded history into counters
func (r *GormAnalysisRepository) FetchStudentStats(ctx context.Context, studentID uint, period Period, subjects []string) (*StatsBundle, error) {
	records, err := r.fetchRecords(ctx, studentID, period)
	if err != nil {
		return nil, err
	}
	return AggregateStats(records, subjects), nil
}

// FetchWrongAnswers builds the wrong-answer list for the student
func (r *GormAnalysisRepository) FetchWrongAnswers(ctx context.Context, studentID uint, period Period, subjects []string) ([]WrongAnswer, error) {
	records, err := r.fetchRecords(ctx, studentID, period)
	if err != nil {
		return nil, err
	}
	return ExtractWrongAnswers(records, subjects), nil
}

// fetchRecords loads graded submissions in the period and joins every
// answer against the problem catalog.
func (r *GormAnalysisRepository) fetchRecords(ctx context.Context, studentID uint, period Period) ([]AnswerRecord, error) {
	query := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, model.SubmissionGraded)
	if period.Start != nil {
		query = query.Where("submitted_at >= ?", *period.Start)
	}
	if period.End != nil {
		query = query.Where("submitted_at <= ?", *period.End)
	}

	var submissions []model.StudentAssignment
	if err := query.Order("submitted_at ASC").Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for student %d: %w", studentID, err)
	}

	problemIDs := collectProblemIDs(submissions)
	problems := make(map[uint]*model.Problem, len(problemIDs))
	if len(problemIDs) > 0 {
		var rows []model.Problem
		if err := r.db.WithContext(ctx).Where("id IN ?", problemIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch problems: %w", err)
		}
		for i := range rows {
			problems[rows[i].ID] = &rows[i]
		}
	}

	matched, unmatched := JoinAnswers(submissions, problems)
	if len(unmatched) > 0 {
		log.Printf("AnalysisRepository: student %d has %d answers referencing missing problems", studentID, len(unmatched))
	}

	return matched, nil
}

func collectProblemIDs(submissions []model.StudentAssignment) []uint {
	seen := make(map[uint]struct{})
	var ids []uint
	for i := range submissions {
		answers, err := submissions[i].AnswerList()
		if err != nil {
			continue
		}
		for _, ans := range answers {
			if _, ok := seen[ans.ProblemID]; ok {
				continue
			}
			seen[ans.ProblemID] = struct{}{}
			ids = append(ids, ans.ProblemID)
		}
	}
	return ids
}
