package services

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	}
}

func sampleAnalysis() *StudentWeaknessAnalysis {
	return &StudentWeaknessAnalysis{
		ID:                 "analysis-1",
		StudentID:          7,
		StudentName:        "박민준",
		TotalProblems:      20,
		OverallCorrectRate: 55,
		UnitWeaknesses: []UnitWeakness{
			{Subject: "수학", Unit: "이차방정식", CorrectRate: 20, WeaknessLevel: 5, WrongCount: 8},
			{Subject: "수학", Unit: "삼각비", CorrectRate: 50, WeaknessLevel: 4, WrongCount: 5},
			{Subject: "영어", Unit: "독해", CorrectRate: 55, WeaknessLevel: 4, WrongCount: 4},
		},
	}
}

func TestGenerateActionPlanFallbackShape(t *testing.T) {
	svc := NewActionPlanService(nil)
	svc.now = fixedClock()

	plan := svc.GenerateActionPlan(context.Background(), sampleAnalysis(), ActionPlanOptions{}, false)
	if plan == nil {
		t.Fatal("plan must never be nil")
	}
	if plan.Source != SourceHeuristic {
		t.Errorf("source = %q, want heuristic", plan.Source)
	}
	if plan.BasedOnAnalysisID != "analysis-1" {
		t.Errorf("plan not linked to its analysis: %q", plan.BasedOnAnalysisID)
	}

	// Defaults: 4 weeks, midnight-aligned validity window
	if len(plan.WeeklyPlans) != 4 {
		t.Fatalf("expected 4 weeks by default, got %d", len(plan.WeeklyPlans))
	}
	wantFrom := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	if !plan.ValidFrom.Equal(wantFrom) {
		t.Errorf("validFrom = %v, want %v", plan.ValidFrom, wantFrom)
	}
	if !plan.ValidTo.Equal(wantFrom.AddDate(0, 0, 28)) {
		t.Errorf("validTo = %v, want 28 days after validFrom", plan.ValidTo)
	}

	for _, week := range plan.WeeklyPlans {
		if len(week.DailyPlans) != 7 {
			t.Fatalf("week %d has %d daily plans, want 7", week.Week, len(week.DailyPlans))
		}
		if len(week.DailyPlans[0].Items) != 0 || len(week.DailyPlans[6].Items) != 0 {
			t.Errorf("week %d: rest days carry items", week.Week)
		}
		for _, day := range week.DailyPlans {
			total := 0
			for _, item := range day.Items {
				total += item.EstimatedTime
			}
			if day.TotalTime != total {
				t.Errorf("week %d day %d: total %d, items sum %d", week.Week, day.DayOfWeek, day.TotalTime, total)
			}
		}
		if !week.EndDate.Equal(week.StartDate.AddDate(0, 0, 6)) {
			t.Errorf("week %d: end date not 6 days after start", week.Week)
		}
	}

	if plan.Progress != 0 || plan.CompletedRecommendations == nil {
		t.Errorf("fresh plan should start at zero progress with an empty completion list")
	}
}

func TestGenerateActionPlanFallbackRecommendations(t *testing.T) {
	svc := NewActionPlanService(nil)
	svc.now = fixedClock()

	opts := ActionPlanOptions{PlanWeeks: 2, DailyStudyTime: 90}
	plan := svc.GenerateActionPlan(context.Background(), sampleAnalysis(), opts, false)

	if len(plan.Recommendations) != 3 {
		t.Fatalf("expected one recommendation per weak unit, got %d", len(plan.Recommendations))
	}
	for i, rec := range plan.Recommendations {
		if rec.Type != RecommendReviewConcept {
			t.Errorf("fallback recommendations are concept reviews, got %q", rec.Type)
		}
		if rec.Priority != i+1 {
			t.Errorf("priority should follow weakness order: rec %d has priority %d", i, rec.Priority)
		}
		if rec.EstimatedTime != 30 {
			t.Errorf("estimated time = %d, want min(dailyStudyTime, 30)", rec.EstimatedTime)
		}
	}

	// Weekly rotation: week 2 leads with the second-weakest unit
	week2 := plan.WeeklyPlans[1]
	firstItem := week2.DailyPlans[1].Items[0]
	if firstItem.TargetArea != "수학 / 삼각비" {
		t.Errorf("week 2 should rotate to the next unit, leads with %q", firstItem.TargetArea)
	}
}

func TestGenerateActionPlanFocusSubjects(t *testing.T) {
	svc := NewActionPlanService(nil)
	svc.now = fixedClock()

	opts := ActionPlanOptions{FocusSubjects: []string{"수학"}}
	plan := svc.GenerateActionPlan(context.Background(), sampleAnalysis(), opts, false)

	if len(plan.Recommendations) != 2 {
		t.Fatalf("expected only math units, got %d recommendations", len(plan.Recommendations))
	}
	for _, rec := range plan.Recommendations {
		if rec.TargetArea == "영어 / 독해" {
			t.Errorf("focus filter leaked subject: %q", rec.TargetArea)
		}
	}
}

func TestGenerateActionPlanNoWeaknesses(t *testing.T) {
	svc := NewActionPlanService(nil)
	svc.now = fixedClock()

	analysis := &StudentWeaknessAnalysis{ID: "a", StudentID: 1, StudentName: "최서연", OverallCorrectRate: 100}
	plan := svc.GenerateActionPlan(context.Background(), analysis, ActionPlanOptions{PlanWeeks: 1}, false)

	if len(plan.Recommendations) != 0 {
		t.Errorf("no weaknesses should mean no recommendations, got %d", len(plan.Recommendations))
	}
	if len(plan.WeeklyPlans) != 1 || len(plan.WeeklyPlans[0].DailyPlans) != 7 {
		t.Errorf("schedule skeleton must still be complete")
	}
	if plan.OverallGoal == "" {
		t.Error("plan should still carry a goal")
	}
}

func TestGenerateActionPlanAIPath(t *testing.T) {
	response := `{
		"overall_goal": "이차방정식 정복",
		"ai_advice": "매일 조금씩 꾸준히 풀어보세요.",
		"recommendations": [
			{"type": "practice_problems", "title": "근의 공식 연습", "description": "연습 10문제", "target_area": "수학 / 이차방정식", "priority": 1, "estimated_time": 40},
			{"type": "invalid_type", "title": "오답 노트", "description": "오답 정리", "target_area": "수학", "priority": 0, "estimated_time": 0}
		],
		"weekly_plans": [
			{"week": 1, "goal": "기초 다지기", "recommendation_indices": [0]}
		]
	}`
	svc := NewActionPlanService(func(ctx context.Context, prompt string) (string, error) {
		return response, nil
	})
	svc.now = fixedClock()

	opts := ActionPlanOptions{PlanWeeks: 2, DailyStudyTime: 60}
	plan := svc.GenerateActionPlan(context.Background(), sampleAnalysis(), opts, true)

	if plan.Source != SourceAI {
		t.Fatalf("source = %q, want ai", plan.Source)
	}
	if plan.OverallGoal != "이차방정식 정복" || plan.AIAdvice == "" {
		t.Errorf("goal/advice not carried: %q / %q", plan.OverallGoal, plan.AIAdvice)
	}

	if len(plan.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(plan.Recommendations))
	}
	second := plan.Recommendations[1]
	if second.Type != RecommendReviewConcept {
		t.Errorf("invalid type should map to review_concept, got %q", second.Type)
	}
	if second.Priority != 2 {
		t.Errorf("missing priority should follow position, got %d", second.Priority)
	}
	if second.EstimatedTime != 30 {
		t.Errorf("zero estimated time should default, got %d", second.EstimatedTime)
	}

	// Week 1 uses the subset the model picked, week 2 was never mentioned and
	// falls back to all recommendations
	week1 := plan.WeeklyPlans[0]
	if week1.Goal != "기초 다지기" {
		t.Errorf("week 1 goal = %q", week1.Goal)
	}
	if len(week1.DailyPlans[1].Items) != 1 {
		t.Errorf("week 1 should schedule only the picked recommendation")
	}
	week2 := plan.WeeklyPlans[1]
	if len(week2.DailyPlans) != 7 {
		t.Fatalf("week 2 missing from the plan")
	}
	scheduled := 0
	for _, day := range week2.DailyPlans {
		scheduled += len(day.Items)
	}
	if scheduled != 2 {
		t.Errorf("unmentioned week should schedule all recommendations, got %d items", scheduled)
	}
}

func TestGenerateActionPlanAIFailureDegrades(t *testing.T) {
	svc := NewActionPlanService(func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("quota exceeded")
	})
	svc.now = fixedClock()

	plan := svc.GenerateActionPlan(context.Background(), sampleAnalysis(), ActionPlanOptions{}, true)
	if plan == nil || plan.Source != SourceHeuristic {
		t.Fatalf("AI failure must degrade to the fallback plan")
	}
}

func TestBuildWeekRoundRobin(t *testing.T) {
	recs := make([]LearningRecommendation, 7)
	for i := range recs {
		recs[i] = LearningRecommendation{ID: fmt.Sprintf("r%d", i), EstimatedTime: 10}
	}

	start := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	week := buildWeek(1, start, "goal", recs)

	// Seven items over five weekdays: days 1 and 2 get two, the rest one
	wantCounts := []int{0, 2, 2, 1, 1, 1, 0}
	for day, want := range wantCounts {
		if got := len(week.DailyPlans[day].Items); got != want {
			t.Errorf("day %d: %d items, want %d", day, got, want)
		}
	}
	if !week.DailyPlans[3].Date.Equal(start.AddDate(0, 0, 3)) {
		t.Errorf("daily dates should step from the week start")
	}
}
