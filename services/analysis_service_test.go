package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/hakwonplus/hakwon-api/model"
)

// fakeAnalysisRepository serves canned data so the orchestration can be tested
// without a database.
type fakeAnalysisRepository struct {
	student      *model.Student
	stats        *StatsBundle
	wrongAnswers []WrongAnswer
	statsErr     error
	wrongErr     error
}

func (f *fakeAnalysisRepository) FetchStudent(ctx context.Context, studentID uint) (*model.Student, error) {
	if f.student == nil {
		return nil, fmt.Errorf("student %d not found", studentID)
	}
	return f.student, nil
}

func (f *fakeAnalysisRepository) FetchStudentStats(ctx context.Context, studentID uint, period Period, subjects []string) (*StatsBundle, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeAnalysisRepository) FetchWrongAnswers(ctx context.Context, studentID uint, period Period, subjects []string) ([]WrongAnswer, error) {
	if f.wrongErr != nil {
		return nil, f.wrongErr
	}
	return f.wrongAnswers, nil
}

func TestAnalyzeStudentWithHistory(t *testing.T) {
	stats := NewStatsBundle()
	stats.TotalProblems = 10
	stats.CorrectCount = 6
	stats.WrongCount = 4
	stats.ByUnit["수학:이차방정식"] = &UnitCount{Total: 5, Correct: 1, Subject: "수학"}
	stats.ByUnit["수학:삼각비"] = &UnitCount{Total: 5, Correct: 5, Subject: "수학"}

	repo := &fakeAnalysisRepository{
		student: &model.Student{ID: 7, Name: "박민준"},
		stats:   stats,
		wrongAnswers: []WrongAnswer{
			{ProblemID: 1, Subject: "수학", Unit: "이차방정식", StudentAnswer: "5", CorrectAnswer: "4"},
			{ProblemID: 2, Subject: "수학", Unit: "이차방정식", StudentAnswer: "", CorrectAnswer: "x=2"},
			{ProblemID: 3, Subject: "수학", Unit: "이차방정식", StudentAnswer: "9", CorrectAnswer: "8", Tags: []string{"근의 공식"}},
			{ProblemID: 4, Subject: "수학", Unit: "이차방정식", StudentAnswer: "7", CorrectAnswer: "6"},
		},
	}

	svc := NewAnalysisService(repo, nil)
	analysis, err := svc.AnalyzeStudent(context.Background(), 7, AnalyzeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.StudentID != 7 || analysis.StudentName != "박민준" {
		t.Errorf("student identity not carried: %+v", analysis)
	}
	if analysis.ID == "" {
		t.Error("analysis should get an id")
	}
	if analysis.OverallCorrectRate != 60 {
		t.Errorf("overall rate = %d, want 60", analysis.OverallCorrectRate)
	}
	if analysis.PatternSource != SourceHeuristic {
		t.Errorf("nil generate must yield heuristic patterns, got %q", analysis.PatternSource)
	}

	if len(analysis.UnitWeaknesses) != 2 {
		t.Fatalf("expected 2 unit weaknesses, got %d", len(analysis.UnitWeaknesses))
	}
	if analysis.UnitWeaknesses[0].Unit != "이차방정식" {
		t.Errorf("weakest unit should lead: %q", analysis.UnitWeaknesses[0].Unit)
	}
	if len(analysis.ConceptWeaknesses) != 1 || analysis.ConceptWeaknesses[0].Concept != "근의 공식" {
		t.Errorf("concept weaknesses wrong: %+v", analysis.ConceptWeaknesses)
	}
	if len(analysis.DifficultyDistribution) != 3 {
		t.Errorf("difficulty distribution should always carry 3 tiers, got %d", len(analysis.DifficultyDistribution))
	}
	if len(analysis.TopPatterns) == 0 || len(analysis.TopPatterns) > 5 {
		t.Errorf("top patterns outside expected bounds: %d", len(analysis.TopPatterns))
	}
	if analysis.AISummary != "" {
		t.Error("summary should be absent unless requested")
	}
}

func TestAnalyzeStudentEmptyHistory(t *testing.T) {
	repo := &fakeAnalysisRepository{
		student: &model.Student{ID: 3, Name: "정하윤"},
		stats:   NewStatsBundle(),
	}

	svc := NewAnalysisService(repo, nil)
	analysis, err := svc.AnalyzeStudent(context.Background(), 3, AnalyzeOptions{IncludeSummary: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.TotalProblems != 0 || analysis.TotalWrong != 0 {
		t.Errorf("empty history should read as zero activity: %+v", analysis)
	}
	if analysis.OverallCorrectRate != 100 {
		t.Errorf("empty history rate = %d, want 100", analysis.OverallCorrectRate)
	}
	if len(analysis.UnitWeaknesses) != 0 || len(analysis.TopPatterns) != 0 {
		t.Error("no history, no weaknesses")
	}
	if len(analysis.DifficultyDistribution) != 3 {
		t.Errorf("distribution tiers = %d, want 3", len(analysis.DifficultyDistribution))
	}
	if analysis.AISummary == "" {
		t.Error("requested summary should fall back to the template")
	}
}

func TestAnalyzeStudentUnknownStudent(t *testing.T) {
	svc := NewAnalysisService(&fakeAnalysisRepository{}, nil)
	if _, err := svc.AnalyzeStudent(context.Background(), 99, AnalyzeOptions{}); err == nil {
		t.Fatal("expected an error for an unknown student")
	}
}

func TestAnalyzeStudentAbortsOnFetchError(t *testing.T) {
	base := fakeAnalysisRepository{
		student: &model.Student{ID: 1, Name: "박민준"},
		stats:   NewStatsBundle(),
	}

	statsFail := base
	statsFail.statsErr = fmt.Errorf("connection reset")
	svc := NewAnalysisService(&statsFail, nil)
	if _, err := svc.AnalyzeStudent(context.Background(), 1, AnalyzeOptions{}); err == nil {
		t.Error("stats fetch error must abort the run")
	}

	wrongFail := base
	wrongFail.wrongErr = fmt.Errorf("connection reset")
	svc = NewAnalysisService(&wrongFail, nil)
	if _, err := svc.AnalyzeStudent(context.Background(), 1, AnalyzeOptions{}); err == nil {
		t.Error("wrong-answer fetch error must abort the run")
	}
}

func TestBuildActionPlanFromAnalysis(t *testing.T) {
	repo := &fakeAnalysisRepository{
		student: &model.Student{ID: 5, Name: "최서연"},
		stats:   NewStatsBundle(),
	}

	svc := NewAnalysisService(repo, nil)
	plan, err := svc.BuildActionPlan(context.Background(), 5, AnalyzeOptions{}, ActionPlanOptions{PlanWeeks: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.StudentID != 5 || len(plan.WeeklyPlans) != 1 {
		t.Errorf("plan not built from the fresh analysis: %+v", plan)
	}
	if plan.BasedOnAnalysisID == "" {
		t.Error("plan should reference the analysis it came from")
	}
}
