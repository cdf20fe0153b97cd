package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnalyzeOptions tunes one analysis run
type AnalyzeOptions struct {
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	Subjects       []string
	IncludeSummary bool
	UseAI          bool // False forces heuristic classification and template summaries
}

// AnalysisService orchestrates the weakness analysis pipeline: parallel data
// fetch, pattern classification, parallel per-dimension analysis, and the
// optional summary.
type AnalysisService struct {
	repo       AnalysisRepository
	classifier *PatternClassifier
	summarizer *SummaryService
	planner    *ActionPlanService
}

// NewAnalysisService wires the pipeline around one repository and one
// generation func shared by every AI-backed step.
func NewAnalysisService(repo AnalysisRepository, generate GenerateTextFunc) *AnalysisService {
	return &AnalysisService{
		repo:       repo,
		classifier: NewPatternClassifier(generate),
		summarizer: NewSummaryService(generate),
		planner:    NewActionPlanService(generate),
	}
}

// AnalyzeStudent runs the full weakness analysis for one student.
// Database failures abort the run; AI failures never do.
func (s *AnalysisService) AnalyzeStudent(ctx context.Context, studentID uint, opts AnalyzeOptions) (*StudentWeaknessAnalysis, error) {
	student, err := s.repo.FetchStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	period := Period{Start: opts.PeriodStart, End: opts.PeriodEnd}

	// Stats and wrong answers come from independent queries; fetch them
	// concurrently.
	var (
		wg           sync.WaitGroup
		stats        *StatsBundle
		statsErr     error
		wrongAnswers []WrongAnswer
		wrongErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, statsErr = s.repo.FetchStudentStats(ctx, studentID, period, opts.Subjects)
	}()
	go func() {
		defer wg.Done()
		wrongAnswers, wrongErr = s.repo.FetchWrongAnswers(ctx, studentID, period, opts.Subjects)
	}()
	wg.Wait()

	if statsErr != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", statsErr)
	}
	if wrongErr != nil {
		return nil, fmt.Errorf("failed to extract wrong answers: %w", wrongErr)
	}

	classified := s.classifier.Classify(ctx, wrongAnswers, opts.UseAI)

	// The three dimension analyses are pure functions over data already in
	// memory; run them concurrently the same way the fetches were.
	var (
		unitWeaknesses    []UnitWeakness
		conceptWeaknesses []ConceptWeakness
		distribution      []DifficultyStat
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		unitWeaknesses = AnalyzeUnitWeaknesses(stats, wrongAnswers, classified.Patterns)
	}()
	go func() {
		defer wg.Done()
		conceptWeaknesses = AnalyzeConceptWeaknesses(wrongAnswers, classified.Patterns)
	}()
	go func() {
		defer wg.Done()
		distribution = BuildDifficultyDistribution(stats)
	}()
	wg.Wait()

	analysis := &StudentWeaknessAnalysis{
		ID:                     uuid.New().String(),
		StudentID:              student.ID,
		StudentName:            student.Name,
		Period:                 period,
		AnalyzedAt:             time.Now(),
		TotalProblems:          stats.TotalProblems,
		TotalWrong:             stats.WrongCount,
		OverallCorrectRate:     CorrectRate(stats.CorrectCount, stats.TotalProblems),
		UnitWeaknesses:         unitWeaknesses,
		ConceptWeaknesses:      conceptWeaknesses,
		DifficultyDistribution: distribution,
		TopPatterns:            TopPatterns(classified.Patterns, 5),
		PatternSource:          classified.Source,
	}

	if opts.IncludeSummary {
		analysis.AISummary = s.summarizer.GenerateSummary(ctx, analysis, opts.UseAI)
	}

	log.Printf("AnalysisService: analyzed student %d: %d problems, %d wrong, %d weak units (patterns via %s)",
		student.ID, analysis.TotalProblems, analysis.TotalWrong, len(unitWeaknesses), analysis.PatternSource)

	return analysis, nil
}

// BuildActionPlan runs a fresh analysis and derives a study plan from it
func (s *AnalysisService) BuildActionPlan(ctx context.Context, studentID uint, analyzeOpts AnalyzeOptions, planOpts ActionPlanOptions) (*ActionPlan, error) {
	analysis, err := s.AnalyzeStudent(ctx, studentID, analyzeOpts)
	if err != nil {
		return nil, err
	}
	return s.planner.GenerateActionPlan(ctx, analysis, planOpts, analyzeOpts.UseAI), nil
}

// PlanFromAnalysis derives a study plan from an analysis the caller already
// holds.
func (s *AnalysisService) PlanFromAnalysis(ctx context.Context, analysis *StudentWeaknessAnalysis, planOpts ActionPlanOptions, allowAI bool) *ActionPlan {
	return s.planner.GenerateActionPlan(ctx, analysis, planOpts, allowAI)
}

// WrongAnswers exposes the wrong-answer list directly, for the review endpoint
func (s *AnalysisService) WrongAnswers(ctx context.Context, studentID uint, opts AnalyzeOptions) ([]WrongAnswer, error) {
	period := Period{Start: opts.PeriodStart, End: opts.PeriodEnd}
	return s.repo.FetchWrongAnswers(ctx, studentID, period, opts.Subjects)
}
