package services

import (
	"testing"

	"github.com/hakwonplus/hakwon-api/model"
)

func TestWeaknessLevelThresholds(t *testing.T) {
	cases := []struct {
		rate, want int
	}{
		{100, 1},
		{90, 1},
		{89, 2},
		{75, 2},
		{74, 3},
		{60, 3},
		{59, 4},
		{40, 4},
		{39, 5},
		{20, 5},
		{0, 5},
	}
	for _, tc := range cases {
		if got := WeaknessLevel(tc.rate); got != tc.want {
			t.Errorf("WeaknessLevel(%d) = %d, want %d", tc.rate, got, tc.want)
		}
	}
}

func TestWeaknessLevelIsMonotonic(t *testing.T) {
	prev := WeaknessLevel(100)
	for rate := 99; rate >= 0; rate-- {
		level := WeaknessLevel(rate)
		if level < prev {
			t.Fatalf("weakness level decreased from %d to %d at rate %d", prev, level, rate)
		}
		prev = level
	}
}

func TestAnalyzeUnitWeaknessesSortsWeakestFirst(t *testing.T) {
	stats := NewStatsBundle()
	stats.ByUnit["수학:이차방정식"] = &UnitCount{Total: 10, Correct: 2, Subject: "수학"} // 20% -> level 5
	stats.ByUnit["수학:삼각비"] = &UnitCount{Total: 10, Correct: 8, Subject: "수학"}    // 80% -> level 2
	stats.ByUnit["수학:이차함수"] = &UnitCount{Total: 10, Correct: 5, Subject: "수학"}   // 50% -> level 4

	wrongAnswers := []WrongAnswer{
		{ProblemID: 1, Subject: "수학", Unit: "이차방정식", Difficulty: model.DifficultyMedium},
		{ProblemID: 2, Subject: "수학", Unit: "이차방정식", Difficulty: model.DifficultyHard},
	}

	weaknesses := AnalyzeUnitWeaknesses(stats, wrongAnswers, nil)
	if len(weaknesses) != 3 {
		t.Fatalf("expected 3 unit weaknesses, got %d", len(weaknesses))
	}

	if weaknesses[0].Unit != "이차방정식" || weaknesses[0].WeaknessLevel != 5 {
		t.Errorf("weakest unit should lead: got %s level %d", weaknesses[0].Unit, weaknesses[0].WeaknessLevel)
	}
	if weaknesses[0].CorrectRate != 20 {
		t.Errorf("이차방정식 correct rate = %d, want 20", weaknesses[0].CorrectRate)
	}
	if len(weaknesses[0].WrongAnswers) != 2 {
		t.Errorf("expected the unit's wrong answers attached, got %d", len(weaknesses[0].WrongAnswers))
	}

	for i := 1; i < len(weaknesses); i++ {
		if weaknesses[i].WeaknessLevel > weaknesses[i-1].WeaknessLevel {
			t.Errorf("weaknesses out of order at %d", i)
		}
	}
}

func TestAnalyzeUnitWeaknessesAttachesTouchingPatterns(t *testing.T) {
	stats := NewStatsBundle()
	stats.ByUnit["수학:이차방정식"] = &UnitCount{Total: 4, Correct: 1, Subject: "수학"}

	wrongAnswers := []WrongAnswer{
		{ProblemID: 1, Subject: "수학", Unit: "이차방정식"},
	}
	patterns := []WrongAnswerPattern{
		{Type: PatternCalculationError, RelatedProblemIDs: []uint{1}},
		{Type: PatternTimePressure, RelatedProblemIDs: []uint{42}}, // Different unit
	}

	weaknesses := AnalyzeUnitWeaknesses(stats, wrongAnswers, patterns)
	if len(weaknesses) != 1 {
		t.Fatalf("expected 1 weakness, got %d", len(weaknesses))
	}
	if len(weaknesses[0].MainPatterns) != 1 || weaknesses[0].MainPatterns[0] != PatternCalculationError {
		t.Errorf("expected only the touching pattern, got %v", weaknesses[0].MainPatterns)
	}
}

func TestAnalyzeConceptWeaknessesGroupsByTag(t *testing.T) {
	wrongAnswers := []WrongAnswer{
		{ProblemID: 1, Subject: "수학", Unit: "이차방정식", Tags: []string{"근의 공식"}},
		{ProblemID: 2, Subject: "수학", Unit: "이차방정식", Tags: []string{"근의 공식", "판별식"}},
		{ProblemID: 3, Subject: "수학", Unit: "이차함수", Tags: []string{"판별식"}},
	}

	weaknesses := AnalyzeConceptWeaknesses(wrongAnswers, nil)
	if len(weaknesses) != 2 {
		t.Fatalf("expected 2 concepts, got %d", len(weaknesses))
	}

	// Both concepts appear twice; ties break alphabetically
	for _, cw := range weaknesses {
		if cw.WrongCount != 2 || cw.TotalProblems != 2 {
			t.Errorf("concept %s: counts %d/%d, want 2/2", cw.Concept, cw.WrongCount, cw.TotalProblems)
		}
		// Only wrong occurrences are visible, so the rate reads as zero
		if cw.CorrectRate != 0 || cw.WeaknessLevel != 5 {
			t.Errorf("concept %s: rate %d level %d", cw.Concept, cw.CorrectRate, cw.WeaknessLevel)
		}
	}
}

func TestAnalyzeConceptWeaknessesSkipsEmptyTags(t *testing.T) {
	wrongAnswers := []WrongAnswer{
		{ProblemID: 1, Subject: "수학", Unit: "이차방정식", Tags: []string{"", "  "}},
		{ProblemID: 2, Subject: "수학", Unit: "이차방정식"},
	}

	if got := AnalyzeConceptWeaknesses(wrongAnswers, nil); len(got) != 0 {
		t.Errorf("expected no concepts from blank tags, got %d", len(got))
	}
}

func TestBuildDifficultyDistributionFixedOrder(t *testing.T) {
	stats := NewStatsBundle()
	stats.ByDifficulty[model.DifficultyMedium].Total = 4
	stats.ByDifficulty[model.DifficultyMedium].Correct = 3

	distribution := BuildDifficultyDistribution(stats)
	if len(distribution) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(distribution))
	}

	wantOrder := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	for i, d := range wantOrder {
		if distribution[i].Difficulty != d {
			t.Errorf("tier %d = %q, want %q", i, distribution[i].Difficulty, d)
		}
	}

	// Empty tiers read as a perfect rate, matching the overall convention
	if distribution[0].CorrectRate != 100 {
		t.Errorf("empty easy tier rate = %d, want 100", distribution[0].CorrectRate)
	}
	if distribution[1].CorrectRate != 75 {
		t.Errorf("medium tier rate = %d, want 75", distribution[1].CorrectRate)
	}
}

func TestTopPatterns(t *testing.T) {
	patterns := make([]WrongAnswerPattern, 8)
	for i := range patterns {
		patterns[i] = WrongAnswerPattern{Frequency: 8 - i}
	}

	top := TopPatterns(patterns, 5)
	if len(top) != 5 {
		t.Fatalf("expected 5 patterns, got %d", len(top))
	}
	if top[0].Frequency != 8 {
		t.Errorf("first pattern should keep the highest frequency")
	}

	few := TopPatterns(patterns[:2], 5)
	if len(few) != 2 {
		t.Errorf("short input should pass through, got %d", len(few))
	}
}
