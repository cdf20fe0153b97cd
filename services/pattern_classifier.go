package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hakwonplus/hakwon-api/model"
	"github.com/hakwonplus/hakwon-api/utils"
)

// maxClassifierSample caps how many wrong answers go into a single
// classification prompt.
const maxClassifierSample = 50

// ClassifySource marks which path produced a classification result
type ClassifySource string

const (
	SourceAI        ClassifySource = "ai"
	SourceHeuristic ClassifySource = "heuristic"
)

// ClassifyResult carries the classified patterns together with the path that
// produced them, so callers never have to guess whether the AI ran.
type ClassifyResult struct {
	Source   ClassifySource       `json:"source"`
	Patterns []WrongAnswerPattern `json:"patterns"`
}

// PatternClassifier assigns recurring error patterns to wrong answers.
// It prefers the AI path and falls back to deterministic rules whenever the
// AI is unavailable, errors out, or returns unparseable output.
type PatternClassifier struct {
	generate GenerateTextFunc // Nil disables the AI path entirely
}

// NewPatternClassifier creates a classifier. Pass nil to run heuristic-only.
func NewPatternClassifier(generate GenerateTextFunc) *PatternClassifier {
	return &PatternClassifier{generate: generate}
}

// Classify returns the error patterns found in wrongAnswers. An empty input
// short-circuits without touching the AI.
func (pc *PatternClassifier) Classify(ctx context.Context, wrongAnswers []WrongAnswer, allowAI bool) ClassifyResult {
	if len(wrongAnswers) == 0 {
		return ClassifyResult{Source: SourceHeuristic, Patterns: []WrongAnswerPattern{}}
	}

	if allowAI && pc.generate != nil {
		patterns, err := pc.classifyWithAI(ctx, wrongAnswers)
		if err == nil {
			return ClassifyResult{Source: SourceAI, Patterns: patterns}
		}
		log.Printf("PatternClassifier: AI classification failed, falling back to heuristics: %v", err)
	}

	return ClassifyResult{Source: SourceHeuristic, Patterns: ClassifyHeuristic(wrongAnswers)}
}

// aiPattern is the shape the model is asked to emit per pattern
type aiPattern struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	Severity       int    `json:"severity"`
	RelatedIndices []int  `json:"related_indices"`
}

func (pc *PatternClassifier) classifyWithAI(ctx context.Context, wrongAnswers []WrongAnswer) ([]WrongAnswerPattern, error) {
	sample := wrongAnswers
	if len(sample) > maxClassifierSample {
		sample = sample[:maxClassifierSample]
	}

	raw, err := pc.generate(ctx, buildClassifierPrompt(sample))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	var parsed []aiPattern
	if err := utils.ExtractJSONTo(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	patterns := make([]WrongAnswerPattern, 0, len(parsed))
	for _, p := range parsed {
		patternType := PatternType(strings.TrimSpace(p.Type))
		if !patternType.IsValid() {
			patternType = PatternUnknown
		}

		var relatedIDs []uint
		seen := make(map[uint]struct{})
		for _, idx := range p.RelatedIndices {
			// Indices outside the sample are model hallucinations; drop them
			if idx < 0 || idx >= len(sample) {
				continue
			}
			id := sample[idx].ProblemID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			relatedIDs = append(relatedIDs, id)
		}
		if len(relatedIDs) == 0 {
			continue
		}

		severity := p.Severity
		if severity < 1 || severity > 5 {
			severity = severityFor(patternType, float64(len(relatedIDs))/float64(len(sample)))
		}

		description := strings.TrimSpace(p.Description)
		if description == "" {
			description = patternDescriptions[patternType]
		}

		patterns = append(patterns, WrongAnswerPattern{
			ID:                "pattern_" + string(patternType),
			Type:              patternType,
			Description:       description,
			Frequency:         len(relatedIDs),
			Severity:          severity,
			RelatedProblemIDs: relatedIDs,
		})
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("classifier response carried no usable patterns")
	}

	sortPatterns(patterns)
	return patterns, nil
}

func buildClassifierPrompt(sample []WrongAnswer) string {
	var sb strings.Builder
	sb.WriteString("당신은 학원 수학 강사입니다. 학생의 오답 목록을 보고 반복되는 오답 유형을 분류해 주세요.\n\n")
	sb.WriteString("사용 가능한 유형 (type 필드에는 반드시 아래 값 중 하나만 사용):\n")
	sb.WriteString("- calculation_error: 계산 실수\n")
	sb.WriteString("- concept_misunderstanding: 개념 오해\n")
	sb.WriteString("- incomplete_understanding: 개념 이해 불완전\n")
	sb.WriteString("- careless_mistake: 부주의한 실수\n")
	sb.WriteString("- time_pressure: 시간 부족\n")
	sb.WriteString("- question_misread: 문제 오독\n")
	sb.WriteString("- formula_confusion: 공식 혼동\n")
	sb.WriteString("- application_difficulty: 응용 어려움\n")
	sb.WriteString("- unknown: 기타\n\n")
	sb.WriteString("오답 목록:\n")

	for i, wa := range sample {
		sb.WriteString(fmt.Sprintf("[%d] 단원: %s / 난이도: %s\n", i, wa.Unit, wa.Difficulty))
		sb.WriteString(fmt.Sprintf("    문제: %s\n", truncateRunes(wa.Question, 200)))
		sb.WriteString(fmt.Sprintf("    정답: %s / 학생 답: %s\n", wa.CorrectAnswer, wa.StudentAnswer))
	}

	sb.WriteString("\n발견한 패턴을 JSON 배열로만 응답하세요. 다른 설명은 쓰지 마세요:\n")
	sb.WriteString(`[{"type": "calculation_error", "description": "패턴에 대한 한국어 설명", "severity": 3, "related_indices": [0, 2]}]`)
	sb.WriteString("\nseverity는 1(경미)부터 5(심각)까지, related_indices는 위 오답 목록의 번호입니다.")
	return sb.String()
}

var pureIntPattern = regexp.MustCompile(`^-?\d+$`)

// ClassifyHeuristic applies deterministic rules to each wrong answer and
// aggregates the matches into patterns. Rule order matters: the first rule
// that fires wins.
func ClassifyHeuristic(wrongAnswers []WrongAnswer) []WrongAnswerPattern {
	counts := make(map[PatternType][]uint)

	for _, wa := range wrongAnswers {
		t := heuristicType(wa)
		counts[t] = append(counts[t], wa.ProblemID)
	}

	total := len(wrongAnswers)
	patterns := make([]WrongAnswerPattern, 0, len(counts))
	for t, ids := range counts {
		ratio := float64(len(ids)) / float64(total)
		patterns = append(patterns, WrongAnswerPattern{
			ID:                "pattern_" + string(t),
			Type:              t,
			Description:       patternDescriptions[t],
			Frequency:         len(ids),
			Severity:          severityFor(t, ratio),
			RelatedProblemIDs: dedupeIDs(ids),
		})
	}

	sortPatterns(patterns)
	return patterns
}

// heuristicType picks the pattern for one wrong answer
func heuristicType(wa WrongAnswer) PatternType {
	student := strings.TrimSpace(wa.StudentAnswer)
	correct := strings.TrimSpace(wa.CorrectAnswer)

	if pureIntPattern.MatchString(student) && pureIntPattern.MatchString(correct) {
		s, errS := strconv.Atoi(student)
		c, errC := strconv.Atoi(correct)
		if errS == nil && errC == nil {
			diff := s - c
			if diff < 0 {
				diff = -diff
			}
			if diff <= 10 {
				return PatternCalculationError
			}
		}
	}

	if student == "" {
		return PatternIncompleteUnderstanding
	}

	if wa.Difficulty == model.DifficultyHard {
		return PatternApplicationDifficulty
	}

	return PatternUnknown
}

// severityFor maps a pattern's frequency ratio onto a 1-5 severity.
// Concept-level patterns score one tier higher at the same ratio because
// they compound across units.
func severityFor(t PatternType, ratio float64) int {
	if t.isConceptLevel() {
		switch {
		case ratio > 0.3:
			return 5
		case ratio > 0.2:
			return 4
		case ratio > 0.1:
			return 3
		default:
			return 2
		}
	}
	switch {
	case ratio > 0.4:
		return 4
	case ratio > 0.2:
		return 3
	case ratio > 0.1:
		return 2
	default:
		return 1
	}
}

// sortPatterns orders by frequency desc, then severity desc, then type asc
// so equal-frequency output stays stable.
func sortPatterns(patterns []WrongAnswerPattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		if patterns[i].Severity != patterns[j].Severity {
			return patterns[i].Severity > patterns[j].Severity
		}
		return patterns[i].Type < patterns[j].Type
	})
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
