package services

import (
	"context"
	"time"

	"github.com/hakwonplus/hakwon-api/model"
)

// GenerateTextFunc is the single-turn completion contract the analysis
// pipeline needs from a generative-text service. gemini.Client.GenerateText
// satisfies it. Every caller wraps it with a deterministic fallback; an error
// from this func never surfaces past the component that called it.
type GenerateTextFunc func(ctx context.Context, prompt string) (string, error)

// Period bounds an analysis to a time window. Nil ends are open.
type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// AnswerRecord is one submitted answer joined to its problem definition.
// Only answers whose problem resolved make it into an AnswerRecord; the
// join step reports the rest separately.
type AnswerRecord struct {
	AssignmentID uint
	StudentID    uint
	Answer       model.SubmittedAnswer
	Problem      *model.Problem
	AnsweredAt   time.Time
}

// WrongAnswer is one incorrect response to one problem, built fresh on each
// analysis request and never persisted here.
type WrongAnswer struct {
	ProblemID     uint             `json:"problem_id"`
	AssignmentID  uint             `json:"assignment_id"`
	Subject       string           `json:"subject"`
	Grade         string           `json:"grade,omitempty"`
	Unit          string           `json:"unit"`
	Question      string           `json:"question"`
	CorrectAnswer string           `json:"correct_answer"`
	StudentAnswer string           `json:"student_answer"`
	Difficulty    model.Difficulty `json:"difficulty"`
	ProblemType   string           `json:"problem_type,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	WrongAt       time.Time        `json:"wrong_at"`
}

// PatternType is the fixed taxonomy of recurring error patterns
type PatternType string

const (
	PatternCalculationError        PatternType = "calculation_error"
	PatternConceptMisunderstanding PatternType = "concept_misunderstanding"
	PatternIncompleteUnderstanding PatternType = "incomplete_understanding"
	PatternCarelessMistake         PatternType = "careless_mistake"
	PatternTimePressure            PatternType = "time_pressure"
	PatternQuestionMisread         PatternType = "question_misread"
	PatternFormulaConfusion        PatternType = "formula_confusion"
	PatternApplicationDifficulty   PatternType = "application_difficulty"
	PatternUnknown                 PatternType = "unknown"
)

// patternDescriptions holds the human-readable description per pattern type
var patternDescriptions = map[PatternType]string{
	PatternCalculationError:        "계산 과정에서 실수가 반복됩니다",
	PatternConceptMisunderstanding: "개념을 잘못 이해하고 있습니다",
	PatternIncompleteUnderstanding: "개념 이해가 불완전하여 답을 완성하지 못합니다",
	PatternCarelessMistake:         "문제를 충분히 확인하지 않아 실수가 발생합니다",
	PatternTimePressure:            "시간 부족으로 문제를 끝까지 풀지 못합니다",
	PatternQuestionMisread:         "문제의 조건을 잘못 읽는 경우가 있습니다",
	PatternFormulaConfusion:        "공식을 혼동하거나 잘못 적용합니다",
	PatternApplicationDifficulty:   "응용 문제에서 배운 개념을 적용하지 못합니다",
	PatternUnknown:                 "기타 유형의 오답입니다",
}

// IsValid reports whether t is part of the fixed taxonomy
func (t PatternType) IsValid() bool {
	_, ok := patternDescriptions[t]
	return ok
}

// isConceptLevel reports whether t is a concept-level pattern type; these
// are scored one severity tier higher at the same frequency ratio.
func (t PatternType) isConceptLevel() bool {
	return t == PatternConceptMisunderstanding || t == PatternIncompleteUnderstanding
}

// WrongAnswerPattern is a classified recurring error type
type WrongAnswerPattern struct {
	ID                string      `json:"id"`
	Type              PatternType `json:"type"`
	Description       string      `json:"description"`
	Frequency         int         `json:"frequency"`
	Severity          int         `json:"severity"` // 1-5
	RelatedProblemIDs []uint      `json:"related_problem_ids"`
}

// TierCount is a total/correct counter pair
type TierCount struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// UnitCount is the per-unit counter with its owning subject
type UnitCount struct {
	Total   int    `json:"total"`
	Correct int    `json:"correct"`
	Subject string `json:"subject"`
}

// StatsBundle is the aggregate of a student's submission history.
// ByDifficulty always carries exactly the easy/medium/hard keys, even when
// every counter is zero.
type StatsBundle struct {
	TotalProblems int                            `json:"total_problems"`
	CorrectCount  int                            `json:"correct_count"`
	WrongCount    int                            `json:"wrong_count"`
	ByDifficulty  map[model.Difficulty]*TierCount `json:"by_difficulty"`
	BySubject     map[string]*TierCount          `json:"by_subject"`
	ByUnit        map[string]*UnitCount          `json:"by_unit"` // Keyed "subject:unit"
}

// UnitWeakness is the aggregated weakness for one curriculum unit
type UnitWeakness struct {
	Unit          string        `json:"unit"`
	Subject       string        `json:"subject"`
	TotalProblems int           `json:"total_problems"`
	WrongCount    int           `json:"wrong_count"`
	CorrectRate   int           `json:"correct_rate"`   // 0-100
	WeaknessLevel int           `json:"weakness_level"` // 1-5
	MainPatterns  []PatternType `json:"main_patterns"`
	WrongAnswers  []WrongAnswer `json:"wrong_answers"`
}

// ConceptWeakness is the aggregated weakness for one concept tag.
// The data layer only surfaces wrong occurrences of a concept, never total
// attempts, so the correct rate here is a one-sided approximation (see
// the analyzer for details).
type ConceptWeakness struct {
	Concept       string        `json:"concept"`
	Subject       string        `json:"subject"`
	TotalProblems int           `json:"total_problems"`
	WrongCount    int           `json:"wrong_count"`
	CorrectRate   int           `json:"correct_rate"`
	WeaknessLevel int           `json:"weakness_level"`
	MainPatterns  []PatternType `json:"main_patterns"`
}

// DifficultyStat is the per-tier slice of the difficulty distribution
type DifficultyStat struct {
	Difficulty  model.Difficulty `json:"difficulty"`
	Total       int              `json:"total"`
	Correct     int              `json:"correct"`
	CorrectRate int              `json:"correct_rate"`
}

// StudentWeaknessAnalysis is the aggregate result of one analysis run.
// It is returned to the caller and never persisted by this subsystem.
type StudentWeaknessAnalysis struct {
	ID                     string               `json:"id"`
	StudentID              uint                 `json:"student_id"`
	StudentName            string               `json:"student_name"`
	Period                 Period               `json:"period"`
	AnalyzedAt             time.Time            `json:"analyzed_at"`
	TotalProblems          int                  `json:"total_problems"`
	TotalWrong             int                  `json:"total_wrong"`
	OverallCorrectRate     int                  `json:"overall_correct_rate"`
	UnitWeaknesses         []UnitWeakness       `json:"unit_weaknesses"`
	ConceptWeaknesses      []ConceptWeakness    `json:"concept_weaknesses"`
	DifficultyDistribution []DifficultyStat     `json:"difficulty_distribution"`
	TopPatterns            []WrongAnswerPattern `json:"top_patterns"`
	PatternSource          ClassifySource       `json:"pattern_source"`
	AISummary              string               `json:"ai_summary,omitempty"`
}
