package services

import (
	"testing"
	"time"

	"github.com/hakwonplus/hakwon-api/model"
)

func boolPtr(b bool) *bool { return &b }

func makeProblem(id uint, subject, unit string, difficulty model.Difficulty, answer string) *model.Problem {
	return &model.Problem{
		ID:         id,
		Subject:    subject,
		Unit:       unit,
		Difficulty: difficulty,
		Content:    "문제 " + answer,
		Answer:     answer,
	}
}

func makeRecord(p *model.Problem, studentAnswer string, correct bool) AnswerRecord {
	return AnswerRecord{
		AssignmentID: 1,
		StudentID:    1,
		Answer: model.SubmittedAnswer{
			ProblemID: p.ID,
			Answer:    studentAnswer,
			IsCorrect: boolPtr(correct),
		},
		Problem:    p,
		AnsweredAt: time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCorrectRate(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 0, 100}, // Empty history never reads as weak
		{0, 10, 0},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
	}
	for _, tc := range cases {
		if got := CorrectRate(tc.correct, tc.total); got != tc.want {
			t.Errorf("CorrectRate(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestAggregateStatsAlwaysCarriesEveryDifficultyTier(t *testing.T) {
	stats := AggregateStats(nil, nil)

	if stats.TotalProblems != 0 {
		t.Errorf("expected zero total, got %d", stats.TotalProblems)
	}
	if len(stats.ByDifficulty) != 3 {
		t.Fatalf("expected 3 difficulty keys, got %d", len(stats.ByDifficulty))
	}
	for _, d := range model.Difficulties {
		tier, ok := stats.ByDifficulty[d]
		if !ok {
			t.Fatalf("missing difficulty key %q", d)
		}
		if tier.Total != 0 || tier.Correct != 0 {
			t.Errorf("difficulty %q should be zeroed, got %+v", d, tier)
		}
	}
}

func TestAggregateStatsCounts(t *testing.T) {
	pEasy := makeProblem(1, "수학", "이차방정식", model.DifficultyEasy, "2")
	pMed := makeProblem(2, "수학", "이차방정식", model.DifficultyMedium, "4")
	pHard := makeProblem(3, "수학", "삼각비", model.DifficultyHard, "1/2")

	records := []AnswerRecord{
		makeRecord(pEasy, "2", true),
		makeRecord(pMed, "5", false),
		makeRecord(pHard, "1/3", false),
	}

	stats := AggregateStats(records, nil)

	if stats.TotalProblems != 3 || stats.CorrectCount != 1 || stats.WrongCount != 2 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ByDifficulty[model.DifficultyEasy].Correct != 1 {
		t.Errorf("easy tier should have 1 correct")
	}
	if stats.ByDifficulty[model.DifficultyHard].Total != 1 || stats.ByDifficulty[model.DifficultyHard].Correct != 0 {
		t.Errorf("hard tier miscounted: %+v", stats.ByDifficulty[model.DifficultyHard])
	}

	unit, ok := stats.ByUnit["수학:이차방정식"]
	if !ok {
		t.Fatal("missing unit key 수학:이차방정식")
	}
	if unit.Total != 2 || unit.Correct != 1 {
		t.Errorf("unit counters wrong: %+v", unit)
	}

	for _, tier := range stats.ByDifficulty {
		if tier.Correct > tier.Total {
			t.Errorf("correct exceeds total in %+v", tier)
		}
	}
}

func TestAggregateStatsSubjectFilter(t *testing.T) {
	math := makeProblem(1, "수학", "이차방정식", model.DifficultyEasy, "2")
	english := makeProblem(2, "영어", "독해", model.DifficultyEasy, "b")

	records := []AnswerRecord{
		makeRecord(math, "2", true),
		makeRecord(english, "a", false),
	}

	stats := AggregateStats(records, []string{"수학"})
	if stats.TotalProblems != 1 {
		t.Errorf("expected only the math record, got %d", stats.TotalProblems)
	}
	if _, ok := stats.BySubject["영어"]; ok {
		t.Error("filtered subject leaked into the bundle")
	}
}

func TestExtractWrongAnswers(t *testing.T) {
	p1 := makeProblem(1, "수학", "이차방정식", model.DifficultyMedium, "4")
	p1.Tags = []byte(`["근의 공식"]`)
	p2 := makeProblem(2, "수학", "삼각비", model.DifficultyEasy, "1/2")

	records := []AnswerRecord{
		makeRecord(p1, "5", false),
		makeRecord(p2, "1/2", true),
	}

	wrong := ExtractWrongAnswers(records, nil)
	if len(wrong) != 1 {
		t.Fatalf("expected 1 wrong answer, got %d", len(wrong))
	}
	wa := wrong[0]
	if wa.ProblemID != 1 || wa.StudentAnswer != "5" || wa.CorrectAnswer != "4" {
		t.Errorf("wrong answer fields wrong: %+v", wa)
	}
	if len(wa.Tags) != 1 || wa.Tags[0] != "근의 공식" {
		t.Errorf("tags not carried over: %v", wa.Tags)
	}
}

func TestJoinAnswersReportsUnmatched(t *testing.T) {
	sub := model.StudentAssignment{
		ID:           10,
		AssignmentID: 5,
		StudentID:    7,
		Status:       model.SubmissionGraded,
	}
	if err := sub.SetAnswers([]model.SubmittedAnswer{
		{ProblemID: 1, Answer: "2", IsCorrect: boolPtr(true)},
		{ProblemID: 99, Answer: "x", IsCorrect: boolPtr(false)}, // Problem deleted since submission
	}); err != nil {
		t.Fatal(err)
	}

	problems := map[uint]*model.Problem{
		1: makeProblem(1, "수학", "이차방정식", model.DifficultyEasy, "2"),
	}

	matched, unmatched := JoinAnswers([]model.StudentAssignment{sub}, problems)
	if len(matched) != 1 {
		t.Fatalf("expected 1 matched record, got %d", len(matched))
	}
	if len(unmatched) != 1 || unmatched[0].ProblemID != 99 {
		t.Fatalf("expected problem 99 reported as unmatched, got %+v", unmatched)
	}
}

func TestNormalizeDifficultyBucketsUnknownToMedium(t *testing.T) {
	if got := normalizeDifficulty("weird"); got != model.DifficultyMedium {
		t.Errorf("unknown difficulty should bucket to medium, got %q", got)
	}
	if got := normalizeDifficulty(model.DifficultyHard); got != model.DifficultyHard {
		t.Errorf("valid difficulty should pass through, got %q", got)
	}
}
