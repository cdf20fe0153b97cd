package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hakwonplus/hakwon-api/utils"
)

// RecommendationType represents the kind of a learning recommendation
type RecommendationType string

const (
	RecommendReviewConcept    RecommendationType = "review_concept"
	RecommendPracticeProblems RecommendationType = "practice_problems"
	RecommendWatchVideo       RecommendationType = "watch_video"
	RecommendErrorNote        RecommendationType = "error_note"
	RecommendFormulaMemorize  RecommendationType = "formula_memorize"
)

// IsValid reports whether t is a known recommendation type
func (t RecommendationType) IsValid() bool {
	switch t {
	case RecommendReviewConcept, RecommendPracticeProblems, RecommendWatchVideo,
		RecommendErrorNote, RecommendFormulaMemorize:
		return true
	}
	return false
}

// LearningRecommendation is one concrete study action
type LearningRecommendation struct {
	ID                string             `json:"id"`
	Type              RecommendationType `json:"type"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	TargetArea        string             `json:"target_area"`
	Priority          int                `json:"priority"` // 1 is highest
	EstimatedTime     int                `json:"estimated_time"` // Minutes
	Reason            string             `json:"reason,omitempty"`
	RelatedWeaknesses []string           `json:"related_weaknesses,omitempty"`
}

// DailyPlan is one day inside a weekly plan. Day 0 and day 6 of each week
// are rest days and carry no items.
type DailyPlan struct {
	DayOfWeek int                      `json:"day_of_week"` // 0-6, relative to the week start
	Date      time.Time                `json:"date"`
	Items     []LearningRecommendation `json:"items"`
	TotalTime int                      `json:"total_time"` // Minutes, always the sum of item times
}

// WeeklyPlan is one week of the action plan, always exactly seven days
type WeeklyPlan struct {
	Week       int         `json:"week"` // 1-based
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	Goal       string      `json:"goal"`
	DailyPlans []DailyPlan `json:"daily_plans"`
}

// ActionPlan is a multi-week study plan derived from a weakness analysis
type ActionPlan struct {
	ID                       string                   `json:"id"`
	StudentID                uint                     `json:"student_id"`
	StudentName              string                   `json:"student_name"`
	BasedOnAnalysisID        string                   `json:"based_on_analysis_id"`
	CreatedAt                time.Time                `json:"created_at"`
	ValidFrom                time.Time                `json:"valid_from"`
	ValidTo                  time.Time                `json:"valid_to"`
	OverallGoal              string                   `json:"overall_goal"`
	AIAdvice                 string                   `json:"ai_advice,omitempty"`
	Recommendations          []LearningRecommendation `json:"recommendations"`
	WeeklyPlans              []WeeklyPlan             `json:"weekly_plans"`
	Progress                 int                      `json:"progress"` // 0-100
	CompletedRecommendations []string                 `json:"completed_recommendations"`
	Source                   ClassifySource           `json:"source"`
}

// ActionPlanOptions tunes plan generation. Zero values get defaults.
type ActionPlanOptions struct {
	PlanWeeks      int      `json:"plan_weeks"`       // Default 4
	DailyStudyTime int      `json:"daily_study_time"` // Minutes, default 60
	FocusSubjects  []string `json:"focus_subjects,omitempty"`
}

const (
	defaultPlanWeeks      = 4
	defaultDailyStudyTime = 60
	maxFallbackUnits      = 5
)

func (o ActionPlanOptions) normalized() ActionPlanOptions {
	if o.PlanWeeks <= 0 {
		o.PlanWeeks = defaultPlanWeeks
	}
	if o.DailyStudyTime <= 0 {
		o.DailyStudyTime = defaultDailyStudyTime
	}
	return o
}

// ActionPlanService turns a weakness analysis into a study plan. The AI path
// proposes goals and recommendations; the schedule expansion and every time
// total is computed locally either way.
type ActionPlanService struct {
	generate GenerateTextFunc
	now      func() time.Time
}

// NewActionPlanService creates an action plan service. Pass nil generate to
// run fallback-only.
func NewActionPlanService(generate GenerateTextFunc) *ActionPlanService {
	return &ActionPlanService{generate: generate, now: time.Now}
}

// GenerateActionPlan builds a plan for the analysis. It never fails: any AI
// problem degrades to the deterministic fallback plan.
func (s *ActionPlanService) GenerateActionPlan(ctx context.Context, analysis *StudentWeaknessAnalysis, opts ActionPlanOptions, allowAI bool) *ActionPlan {
	opts = opts.normalized()

	now := s.now()
	validFrom := startOfDay(now)
	validTo := validFrom.AddDate(0, 0, opts.PlanWeeks*7)

	if allowAI && s.generate != nil {
		plan, err := s.generateWithAI(ctx, analysis, opts, now, validFrom, validTo)
		if err == nil {
			return plan
		}
		log.Printf("ActionPlanService: AI plan failed, using fallback: %v", err)
	}

	return s.generateFallback(analysis, opts, now, validFrom, validTo)
}

type aiRecommendation struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TargetArea    string `json:"target_area"`
	Priority      int    `json:"priority"`
	EstimatedTime int    `json:"estimated_time"`
	Reason        string `json:"reason"`
}

type aiWeeklyPlan struct {
	Week                  int    `json:"week"`
	Goal                  string `json:"goal"`
	RecommendationIndices []int  `json:"recommendation_indices"`
}

type aiPlanResponse struct {
	OverallGoal     string             `json:"overall_goal"`
	AIAdvice        string             `json:"ai_advice"`
	Recommendations []aiRecommendation `json:"recommendations"`
	WeeklyPlans     []aiWeeklyPlan     `json:"weekly_plans"`
}

func (s *ActionPlanService) generateWithAI(ctx context.Context, analysis *StudentWeaknessAnalysis, opts ActionPlanOptions, now, validFrom, validTo time.Time) (*ActionPlan, error) {
	raw, err := s.generate(ctx, buildPlanPrompt(analysis, opts))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	var parsed aiPlanResponse
	if err := utils.ExtractJSONTo(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse plan response: %w", err)
	}
	if len(parsed.Recommendations) == 0 {
		return nil, fmt.Errorf("plan response carried no recommendations")
	}

	recommendations := make([]LearningRecommendation, 0, len(parsed.Recommendations))
	for i, r := range parsed.Recommendations {
		recType := RecommendationType(strings.TrimSpace(r.Type))
		if !recType.IsValid() {
			recType = RecommendReviewConcept
		}
		priority := r.Priority
		if priority < 1 {
			priority = i + 1
		}
		estimated := r.EstimatedTime
		if estimated <= 0 {
			estimated = minInt(opts.DailyStudyTime, 30)
		}
		recommendations = append(recommendations, LearningRecommendation{
			ID:            uuid.New().String(),
			Type:          recType,
			Title:         strings.TrimSpace(r.Title),
			Description:   strings.TrimSpace(r.Description),
			TargetArea:    strings.TrimSpace(r.TargetArea),
			Priority:      priority,
			EstimatedTime: estimated,
			Reason:        strings.TrimSpace(r.Reason),
		})
	}

	weeklyGoals := make(map[int]aiWeeklyPlan, len(parsed.WeeklyPlans))
	for _, wp := range parsed.WeeklyPlans {
		weeklyGoals[wp.Week] = wp
	}

	weeklyPlans := make([]WeeklyPlan, 0, opts.PlanWeeks)
	for week := 1; week <= opts.PlanWeeks; week++ {
		goal := fmt.Sprintf("%d주차 학습 목표", week)
		subset := recommendations
		if wp, ok := weeklyGoals[week]; ok {
			if strings.TrimSpace(wp.Goal) != "" {
				goal = strings.TrimSpace(wp.Goal)
			}
			picked := pickRecommendations(recommendations, wp.RecommendationIndices)
			if len(picked) > 0 {
				subset = picked
			}
		}
		weekStart := validFrom.AddDate(0, 0, (week-1)*7)
		weeklyPlans = append(weeklyPlans, buildWeek(week, weekStart, goal, subset))
	}

	overallGoal := strings.TrimSpace(parsed.OverallGoal)
	if overallGoal == "" {
		overallGoal = defaultOverallGoal(analysis, opts)
	}

	return &ActionPlan{
		ID:                       uuid.New().String(),
		StudentID:                analysis.StudentID,
		StudentName:              analysis.StudentName,
		BasedOnAnalysisID:        analysis.ID,
		CreatedAt:                now,
		ValidFrom:                validFrom,
		ValidTo:                  validTo,
		OverallGoal:              overallGoal,
		AIAdvice:                 strings.TrimSpace(parsed.AIAdvice),
		Recommendations:          recommendations,
		WeeklyPlans:              weeklyPlans,
		Progress:                 0,
		CompletedRecommendations: []string{},
		Source:                   SourceAI,
	}, nil
}

// generateFallback builds the deterministic plan: the weakest units become
// concept-review recommendations cycled across the study weeks.
func (s *ActionPlanService) generateFallback(analysis *StudentWeaknessAnalysis, opts ActionPlanOptions, now, validFrom, validTo time.Time) *ActionPlan {
	units := focusUnits(analysis.UnitWeaknesses, opts.FocusSubjects, maxFallbackUnits)

	recommendations := make([]LearningRecommendation, 0, len(units))
	for i, uw := range units {
		recommendations = append(recommendations, LearningRecommendation{
			ID:            uuid.New().String(),
			Type:          RecommendReviewConcept,
			Title:         fmt.Sprintf("%s %s 개념 복습", uw.Subject, uw.Unit),
			Description:   fmt.Sprintf("%s 단원의 핵심 개념을 다시 정리하고 틀린 문제를 다시 풀어보세요.", uw.Unit),
			TargetArea:    fmt.Sprintf("%s / %s", uw.Subject, uw.Unit),
			Priority:      i + 1,
			EstimatedTime: minInt(opts.DailyStudyTime, 30),
			Reason:        fmt.Sprintf("정답률 %d%%로 취약한 단원입니다", uw.CorrectRate),
			RelatedWeaknesses: []string{uw.Unit},
		})
	}

	weeklyPlans := make([]WeeklyPlan, 0, opts.PlanWeeks)
	for week := 1; week <= opts.PlanWeeks; week++ {
		weekStart := validFrom.AddDate(0, 0, (week-1)*7)
		goal := "이번 주는 학습 습관 유지에 집중합니다"
		subset := recommendations
		if len(recommendations) > 0 {
			// Rotate the starting recommendation so each week leads with a
			// different unit
			offset := (week - 1) % len(recommendations)
			subset = append(append([]LearningRecommendation{}, recommendations[offset:]...), recommendations[:offset]...)
			goal = fmt.Sprintf("%d주차: %s 집중 복습", week, subset[0].TargetArea)
		}
		weeklyPlans = append(weeklyPlans, buildWeek(week, weekStart, goal, subset))
	}

	return &ActionPlan{
		ID:                       uuid.New().String(),
		StudentID:                analysis.StudentID,
		StudentName:              analysis.StudentName,
		BasedOnAnalysisID:        analysis.ID,
		CreatedAt:                now,
		ValidFrom:                validFrom,
		ValidTo:                  validTo,
		OverallGoal:              defaultOverallGoal(analysis, opts),
		Recommendations:          recommendations,
		WeeklyPlans:              weeklyPlans,
		Progress:                 0,
		CompletedRecommendations: []string{},
		Source:                   SourceHeuristic,
	}
}

// buildWeek expands one week into exactly seven daily plans. Recommendations
// are round-robin assigned to the five weekdays; day 0 and day 6 stay empty.
// Each day's total time is recomputed from its items.
func buildWeek(week int, weekStart time.Time, goal string, recommendations []LearningRecommendation) WeeklyPlan {
	dailyPlans := make([]DailyPlan, 7)
	for day := 0; day < 7; day++ {
		dailyPlans[day] = DailyPlan{
			DayOfWeek: day,
			Date:      weekStart.AddDate(0, 0, day),
			Items:     []LearningRecommendation{},
		}
	}

	for i, rec := range recommendations {
		day := 1 + i%5 // Weekdays only: days 1 through 5
		dailyPlans[day].Items = append(dailyPlans[day].Items, rec)
	}

	for day := range dailyPlans {
		total := 0
		for _, item := range dailyPlans[day].Items {
			total += item.EstimatedTime
		}
		dailyPlans[day].TotalTime = total
	}

	return WeeklyPlan{
		Week:       week,
		StartDate:  weekStart,
		EndDate:    weekStart.AddDate(0, 0, 6),
		Goal:       goal,
		DailyPlans: dailyPlans,
	}
}

func buildPlanPrompt(analysis *StudentWeaknessAnalysis, opts ActionPlanOptions) string {
	var sb strings.Builder
	sb.WriteString("당신은 학원 수학 강사입니다. 학생의 약점 분석을 바탕으로 학습 계획을 세워 주세요.\n\n")
	sb.WriteString(fmt.Sprintf("학생: %s / 전체 정답률: %d%%\n", analysis.StudentName, analysis.OverallCorrectRate))
	sb.WriteString(fmt.Sprintf("계획 기간: %d주 / 하루 학습 시간: %d분\n", opts.PlanWeeks, opts.DailyStudyTime))
	if len(opts.FocusSubjects) > 0 {
		sb.WriteString(fmt.Sprintf("집중 과목: %s\n", strings.Join(opts.FocusSubjects, ", ")))
	}

	sb.WriteString("\n취약 단원 (취약한 순):\n")
	for i, uw := range analysis.UnitWeaknesses {
		if i >= 5 {
			break
		}
		sb.WriteString(fmt.Sprintf("- %s %s: 정답률 %d%%, 오답 %d개\n", uw.Subject, uw.Unit, uw.CorrectRate, uw.WrongCount))
	}
	if len(analysis.TopPatterns) > 0 {
		sb.WriteString("주요 오답 패턴:\n")
		for i, p := range analysis.TopPatterns {
			if i >= 3 {
				break
			}
			sb.WriteString(fmt.Sprintf("- %s: %s (%d회)\n", p.Type, p.Description, p.Frequency))
		}
	}

	sb.WriteString("\nJSON으로만 응답하세요. recommendations는 5개에서 10개 사이로, type은 ")
	sb.WriteString("review_concept, practice_problems, watch_video, error_note, formula_memorize 중 하나만 사용하세요:\n")
	sb.WriteString(`{"overall_goal": "전체 목표", "ai_advice": "학생에게 전하는 조언", "recommendations": [{"type": "review_concept", "title": "제목", "description": "설명", "target_area": "수학 / 이차방정식", "priority": 1, "estimated_time": 30, "reason": "이유"}], "weekly_plans": [{"week": 1, "goal": "1주차 목표", "recommendation_indices": [0, 1]}]}`)
	sb.WriteString(fmt.Sprintf("\nweekly_plans는 1주차부터 %d주차까지, recommendation_indices는 recommendations 배열의 번호입니다.", opts.PlanWeeks))
	return sb.String()
}

func defaultOverallGoal(analysis *StudentWeaknessAnalysis, opts ActionPlanOptions) string {
	if len(analysis.UnitWeaknesses) == 0 {
		return fmt.Sprintf("%d주 동안 현재 수준을 유지하며 학습 습관을 다집니다", opts.PlanWeeks)
	}
	worst := analysis.UnitWeaknesses[0]
	return fmt.Sprintf("%d주 안에 %s %s 단원의 정답률을 끌어올립니다", opts.PlanWeeks, worst.Subject, worst.Unit)
}

// focusUnits filters unit weaknesses by the focus-subject list and caps the
// count. The input is already sorted weakest-first.
func focusUnits(weaknesses []UnitWeakness, focusSubjects []string, limit int) []UnitWeakness {
	out := make([]UnitWeakness, 0, limit)
	for _, uw := range weaknesses {
		if !subjectAllowed(uw.Subject, focusSubjects) {
			continue
		}
		out = append(out, uw)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func pickRecommendations(recommendations []LearningRecommendation, indices []int) []LearningRecommendation {
	picked := make([]LearningRecommendation, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(recommendations) {
			continue
		}
		picked = append(picked, recommendations[idx])
	}
	return picked
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
