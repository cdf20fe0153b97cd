package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hakwonplus/hakwon-api/model"
)

// countingGenerate records how many times the AI path was invoked and replies
// with a fixed body.
func countingGenerate(calls *int, response string, fail bool) GenerateTextFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		*calls++
		if fail {
			return "", fmt.Errorf("model unavailable")
		}
		return response, nil
	}
}

func TestClassifyEmptyInputSkipsAI(t *testing.T) {
	calls := 0
	pc := NewPatternClassifier(countingGenerate(&calls, "[]", false))

	result := pc.Classify(context.Background(), nil, true)
	if calls != 0 {
		t.Errorf("empty input should not reach the AI, got %d calls", calls)
	}
	if result.Source != SourceHeuristic {
		t.Errorf("source = %q, want heuristic", result.Source)
	}
	if result.Patterns == nil || len(result.Patterns) != 0 {
		t.Errorf("expected empty non-nil pattern slice, got %v", result.Patterns)
	}
}

func TestClassifyRespectsAllowFlag(t *testing.T) {
	calls := 0
	pc := NewPatternClassifier(countingGenerate(&calls, "[]", false))

	wrongAnswers := []WrongAnswer{{ProblemID: 1, StudentAnswer: "", CorrectAnswer: "4"}}
	result := pc.Classify(context.Background(), wrongAnswers, false)
	if calls != 0 {
		t.Errorf("allowAI=false should not reach the AI, got %d calls", calls)
	}
	if result.Source != SourceHeuristic {
		t.Errorf("source = %q, want heuristic", result.Source)
	}
}

func TestHeuristicRuleOrder(t *testing.T) {
	cases := []struct {
		name string
		wa   WrongAnswer
		want PatternType
	}{
		{"near miss integers", WrongAnswer{StudentAnswer: "13", CorrectAnswer: "12"}, PatternCalculationError},
		{"near miss negative", WrongAnswer{StudentAnswer: "-3", CorrectAnswer: "4"}, PatternCalculationError},
		{"far off integers", WrongAnswer{StudentAnswer: "100", CorrectAnswer: "12"}, PatternUnknown},
		{"blank answer", WrongAnswer{StudentAnswer: "  ", CorrectAnswer: "12"}, PatternIncompleteUnderstanding},
		{"hard problem", WrongAnswer{StudentAnswer: "x=1", CorrectAnswer: "x=2", Difficulty: model.DifficultyHard}, PatternApplicationDifficulty},
		{"blank beats hard", WrongAnswer{StudentAnswer: "", CorrectAnswer: "12", Difficulty: model.DifficultyHard}, PatternIncompleteUnderstanding},
		{"nothing matches", WrongAnswer{StudentAnswer: "x=1", CorrectAnswer: "x=2", Difficulty: model.DifficultyEasy}, PatternUnknown},
	}
	for _, tc := range cases {
		if got := heuristicType(tc.wa); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyHeuristicAggregates(t *testing.T) {
	wrongAnswers := []WrongAnswer{
		{ProblemID: 1, StudentAnswer: "5", CorrectAnswer: "4"},
		{ProblemID: 2, StudentAnswer: "9", CorrectAnswer: "8"},
		{ProblemID: 3, StudentAnswer: "", CorrectAnswer: "x=2"},
	}

	patterns := ClassifyHeuristic(wrongAnswers)
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}

	// Highest frequency first
	if patterns[0].Type != PatternCalculationError || patterns[0].Frequency != 2 {
		t.Errorf("lead pattern = %q freq %d", patterns[0].Type, patterns[0].Frequency)
	}
	if patterns[0].ID != "pattern_calculation_error" {
		t.Errorf("pattern IDs should be deterministic, got %q", patterns[0].ID)
	}
	if len(patterns[0].RelatedProblemIDs) != 2 {
		t.Errorf("related IDs not collected: %v", patterns[0].RelatedProblemIDs)
	}
	if patterns[0].Description == "" {
		t.Error("pattern should carry its canned description")
	}
}

func TestSeverityTiers(t *testing.T) {
	// Concept-level patterns score a tier higher at the same ratio
	cases := []struct {
		t     PatternType
		ratio float64
		want  int
	}{
		{PatternConceptMisunderstanding, 0.5, 5},
		{PatternConceptMisunderstanding, 0.25, 4},
		{PatternIncompleteUnderstanding, 0.15, 3},
		{PatternIncompleteUnderstanding, 0.05, 2},
		{PatternCalculationError, 0.5, 4},
		{PatternCalculationError, 0.25, 3},
		{PatternCarelessMistake, 0.15, 2},
		{PatternCarelessMistake, 0.05, 1},
	}
	for _, tc := range cases {
		if got := severityFor(tc.t, tc.ratio); got != tc.want {
			t.Errorf("severityFor(%q, %.2f) = %d, want %d", tc.t, tc.ratio, got, tc.want)
		}
	}
}

func TestClassifyAIPath(t *testing.T) {
	calls := 0
	response := "```json\n" +
		`[{"type": "formula_confusion", "description": "근의 공식을 혼동함", "severity": 4, "related_indices": [0, 1, 7]},` +
		`{"type": "made_up_type", "description": "", "severity": 9, "related_indices": [1]}]` +
		"\n```"
	pc := NewPatternClassifier(countingGenerate(&calls, response, false))

	wrongAnswers := []WrongAnswer{
		{ProblemID: 10, StudentAnswer: "x=1", CorrectAnswer: "x=2", Unit: "이차방정식"},
		{ProblemID: 11, StudentAnswer: "x=5", CorrectAnswer: "x=3", Unit: "이차방정식"},
	}

	result := pc.Classify(context.Background(), wrongAnswers, true)
	if calls != 1 {
		t.Fatalf("expected one AI call, got %d", calls)
	}
	if result.Source != SourceAI {
		t.Fatalf("source = %q, want ai", result.Source)
	}
	if len(result.Patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(result.Patterns))
	}

	lead := result.Patterns[0]
	if lead.Type != PatternFormulaConfusion || lead.Severity != 4 {
		t.Errorf("lead pattern wrong: %+v", lead)
	}
	// Index 7 is outside the sample and must be dropped
	if len(lead.RelatedProblemIDs) != 2 {
		t.Errorf("out-of-range index not dropped: %v", lead.RelatedProblemIDs)
	}

	// Unknown type buckets to unknown, bad severity gets recomputed,
	// empty description falls back to the canned one
	other := result.Patterns[1]
	if other.Type != PatternUnknown {
		t.Errorf("invalid type should map to unknown, got %q", other.Type)
	}
	if other.Severity < 1 || other.Severity > 5 {
		t.Errorf("severity out of range: %d", other.Severity)
	}
	if other.Description != patternDescriptions[PatternUnknown] {
		t.Errorf("description fallback missing: %q", other.Description)
	}
}

func TestClassifyFallsBackOnAIError(t *testing.T) {
	calls := 0
	pc := NewPatternClassifier(countingGenerate(&calls, "", true))

	wrongAnswers := []WrongAnswer{{ProblemID: 1, StudentAnswer: "5", CorrectAnswer: "4"}}
	result := pc.Classify(context.Background(), wrongAnswers, true)
	if calls != 1 {
		t.Errorf("expected one attempted AI call, got %d", calls)
	}
	if result.Source != SourceHeuristic {
		t.Errorf("source = %q, want heuristic fallback", result.Source)
	}
	if len(result.Patterns) != 1 || result.Patterns[0].Type != PatternCalculationError {
		t.Errorf("fallback patterns wrong: %+v", result.Patterns)
	}
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	cases := []string{
		"죄송합니다, 분류할 수 없습니다.",               // No JSON at all
		"[]",                                // Parses but carries nothing
		`[{"type": "unknown", "related_indices": [99]}]`, // Only hallucinated indices
	}
	for _, response := range cases {
		calls := 0
		pc := NewPatternClassifier(countingGenerate(&calls, response, false))
		result := pc.Classify(context.Background(), []WrongAnswer{{ProblemID: 1, StudentAnswer: "", CorrectAnswer: "4"}}, true)
		if result.Source != SourceHeuristic {
			t.Errorf("response %q should fall back to heuristics, got %q", response, result.Source)
		}
	}
}

func TestClassifierPromptSampleCap(t *testing.T) {
	wrongAnswers := make([]WrongAnswer, maxClassifierSample+20)
	for i := range wrongAnswers {
		wrongAnswers[i] = WrongAnswer{ProblemID: uint(i + 1), StudentAnswer: "x", CorrectAnswer: "y"}
	}

	var captured string
	pc := NewPatternClassifier(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return "", fmt.Errorf("stop here")
	})
	pc.Classify(context.Background(), wrongAnswers, true)

	if captured == "" {
		t.Fatal("prompt never built")
	}
	if strings.Contains(captured, fmt.Sprintf("[%d]", maxClassifierSample)) {
		t.Errorf("prompt should stop at %d samples", maxClassifierSample)
	}
	if !strings.Contains(captured, fmt.Sprintf("[%d]", maxClassifierSample-1)) {
		t.Errorf("prompt should include sample %d", maxClassifierSample-1)
	}
}
