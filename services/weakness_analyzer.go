package services

import (
	"sort"
	"strings"

	"github.com/hakwonplus/hakwon-api/model"
)

// WeaknessLevel maps a correct rate onto the 1-5 weakness scale.
// 1 means strong, 5 means severely weak.
func WeaknessLevel(correctRate int) int {
	switch {
	case correctRate >= 90:
		return 1
	case correctRate >= 75:
		return 2
	case correctRate >= 60:
		return 3
	case correctRate >= 40:
		return 4
	default:
		return 5
	}
}

// AnalyzeUnitWeaknesses builds per-unit weakness entries from the aggregated
// counters, attaching each unit's wrong answers and the patterns that touch
// them. The result is sorted weakest-first.
func AnalyzeUnitWeaknesses(stats *StatsBundle, wrongAnswers []WrongAnswer, patterns []WrongAnswerPattern) []UnitWeakness {
	weaknesses := make([]UnitWeakness, 0, len(stats.ByUnit))

	for key, count := range stats.ByUnit {
		subject, unit := splitUnitKey(key, count.Subject)

		unitWrong := make([]WrongAnswer, 0)
		problemIDs := make(map[uint]struct{})
		for _, wa := range wrongAnswers {
			if wa.Subject == subject && wa.Unit == unit {
				unitWrong = append(unitWrong, wa)
				problemIDs[wa.ProblemID] = struct{}{}
			}
		}

		rate := CorrectRate(count.Correct, count.Total)
		weaknesses = append(weaknesses, UnitWeakness{
			Unit:          unit,
			Subject:       subject,
			TotalProblems: count.Total,
			WrongCount:    count.Total - count.Correct,
			CorrectRate:   rate,
			WeaknessLevel: WeaknessLevel(rate),
			MainPatterns:  patternsTouching(patterns, problemIDs),
			WrongAnswers:  unitWrong,
		})
	}

	sort.Slice(weaknesses, func(i, j int) bool {
		if weaknesses[i].WeaknessLevel != weaknesses[j].WeaknessLevel {
			return weaknesses[i].WeaknessLevel > weaknesses[j].WeaknessLevel
		}
		if weaknesses[i].WrongCount != weaknesses[j].WrongCount {
			return weaknesses[i].WrongCount > weaknesses[j].WrongCount
		}
		return weaknesses[i].Unit < weaknesses[j].Unit
	})

	return weaknesses
}

// AnalyzeConceptWeaknesses groups wrong answers by concept tag. Submissions
// only reveal the problems a student got wrong per concept, so wrong
// occurrences stand in for total attempts and the correct rate reads as zero.
// The weakness level therefore reflects frequency, not a real rate.
func AnalyzeConceptWeaknesses(wrongAnswers []WrongAnswer, patterns []WrongAnswerPattern) []ConceptWeakness {
	type conceptAgg struct {
		subject    string
		problemIDs map[uint]struct{}
		count      int
	}
	byConcept := make(map[string]*conceptAgg)

	for _, wa := range wrongAnswers {
		for _, tag := range wa.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			agg, ok := byConcept[tag]
			if !ok {
				agg = &conceptAgg{subject: wa.Subject, problemIDs: make(map[uint]struct{})}
				byConcept[tag] = agg
			}
			agg.count++
			agg.problemIDs[wa.ProblemID] = struct{}{}
		}
	}

	weaknesses := make([]ConceptWeakness, 0, len(byConcept))
	for concept, agg := range byConcept {
		rate := 0 // Every observed occurrence is a wrong one
		weaknesses = append(weaknesses, ConceptWeakness{
			Concept:       concept,
			Subject:       agg.subject,
			TotalProblems: agg.count,
			WrongCount:    agg.count,
			CorrectRate:   rate,
			WeaknessLevel: WeaknessLevel(rate),
			MainPatterns:  patternsTouching(patterns, agg.problemIDs),
		})
	}

	sort.Slice(weaknesses, func(i, j int) bool {
		if weaknesses[i].WrongCount != weaknesses[j].WrongCount {
			return weaknesses[i].WrongCount > weaknesses[j].WrongCount
		}
		return weaknesses[i].Concept < weaknesses[j].Concept
	})

	return weaknesses
}

// BuildDifficultyDistribution flattens the difficulty counters into the
// fixed easy/medium/hard display order.
func BuildDifficultyDistribution(stats *StatsBundle) []DifficultyStat {
	distribution := make([]DifficultyStat, 0, len(model.Difficulties))
	for _, d := range model.Difficulties {
		count := stats.ByDifficulty[d]
		if count == nil {
			count = &TierCount{}
		}
		distribution = append(distribution, DifficultyStat{
			Difficulty:  d,
			Total:       count.Total,
			Correct:     count.Correct,
			CorrectRate: CorrectRate(count.Correct, count.Total),
		})
	}
	return distribution
}

// TopPatterns returns the first n patterns; the classifier already sorted
// them by frequency.
func TopPatterns(patterns []WrongAnswerPattern, n int) []WrongAnswerPattern {
	if len(patterns) <= n {
		return patterns
	}
	return patterns[:n]
}

// patternsTouching returns the types of patterns whose related problems
// intersect the given set, preserving the classifier's ordering.
func patternsTouching(patterns []WrongAnswerPattern, problemIDs map[uint]struct{}) []PatternType {
	types := make([]PatternType, 0)
	for _, p := range patterns {
		for _, id := range p.RelatedProblemIDs {
			if _, ok := problemIDs[id]; ok {
				types = append(types, p.Type)
				break
			}
		}
	}
	return types
}

// splitUnitKey reverses the "subject:unit" keying used by the aggregator
func splitUnitKey(key, fallbackSubject string) (subject, unit string) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return fallbackSubject, key
}
