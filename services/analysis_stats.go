package services

import (
	"math"

	"github.com/hakwonplus/hakwon-api/model"
)

// CorrectRate returns the rounded percentage of correct answers.
// Zero attempts counts as a perfect rate so empty histories never read as
// maximally weak.
func CorrectRate(correct, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// JoinAnswers resolves each submitted answer against the problem catalog.
// Answers whose problem is missing are returned in the second slice so the
// caller can log them; they never silently disappear into the matched set.
func JoinAnswers(submissions []model.StudentAssignment, problems map[uint]*model.Problem) ([]AnswerRecord, []model.SubmittedAnswer) {
	var matched []AnswerRecord
	var unmatched []model.SubmittedAnswer

	for i := range submissions {
		sub := &submissions[i]
		answers, err := sub.AnswerList()
		if err != nil {
			continue
		}

		answeredAt := sub.UpdatedAt
		if sub.SubmittedAt != nil {
			answeredAt = *sub.SubmittedAt
		}

		for _, ans := range answers {
			problem, ok := problems[ans.ProblemID]
			if !ok || problem == nil {
				unmatched = append(unmatched, ans)
				continue
			}
			matched = append(matched, AnswerRecord{
				AssignmentID: sub.AssignmentID,
				StudentID:    sub.StudentID,
				Answer:       ans,
				Problem:      problem,
				AnsweredAt:   answeredAt,
			})
		}
	}

	return matched, unmatched
}

// subjectAllowed reports whether subject passes the optional allow-list.
// An empty list allows everything.
func subjectAllowed(subject string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, s := range allow {
		if s == subject {
			return true
		}
	}
	return false
}

// normalizeDifficulty buckets unknown tiers into medium so the distribution
// keys stay fixed.
func normalizeDifficulty(d model.Difficulty) model.Difficulty {
	if !d.IsValid() {
		return model.DifficultyMedium
	}
	return d
}

// NewStatsBundle returns an empty bundle with every difficulty tier
// pre-registered.
func NewStatsBundle() *StatsBundle {
	byDifficulty := make(map[model.Difficulty]*TierCount, len(model.Difficulties))
	for _, d := range model.Difficulties {
		byDifficulty[d] = &TierCount{}
	}
	return &StatsBundle{
		ByDifficulty: byDifficulty,
		BySubject:    make(map[string]*TierCount),
		ByUnit:       make(map[string]*UnitCount),
	}
}

// AggregateStats folds graded answer records into per-difficulty,
// per-subject and per-unit counters. Ungraded answers are skipped; the
// repository only hands over graded submissions, so hitting one here means
// a grading bug upstream, not a student with pending work.
func AggregateStats(records []AnswerRecord, subjects []string) *StatsBundle {
	stats := NewStatsBundle()

	for _, rec := range records {
		if rec.Problem == nil || !subjectAllowed(rec.Problem.Subject, subjects) {
			continue
		}
		if rec.Answer.IsCorrect == nil {
			continue
		}

		correct := *rec.Answer.IsCorrect
		stats.TotalProblems++
		if correct {
			stats.CorrectCount++
		} else {
			stats.WrongCount++
		}

		tier := stats.ByDifficulty[normalizeDifficulty(rec.Problem.Difficulty)]
		tier.Total++
		if correct {
			tier.Correct++
		}

		subjTier, ok := stats.BySubject[rec.Problem.Subject]
		if !ok {
			subjTier = &TierCount{}
			stats.BySubject[rec.Problem.Subject] = subjTier
		}
		subjTier.Total++
		if correct {
			subjTier.Correct++
		}

		unitKey := rec.Problem.Subject + ":" + rec.Problem.Unit
		unit, ok := stats.ByUnit[unitKey]
		if !ok {
			unit = &UnitCount{Subject: rec.Problem.Subject}
			stats.ByUnit[unitKey] = unit
		}
		unit.Total++
		if correct {
			unit.Correct++
		}
	}

	return stats
}

// ExtractWrongAnswers flattens graded answer records into the wrong-answer
// list the classifier and analyzers consume.
func ExtractWrongAnswers(records []AnswerRecord, subjects []string) []WrongAnswer {
	wrongAnswers := make([]WrongAnswer, 0)

	for _, rec := range records {
		if rec.Problem == nil || !subjectAllowed(rec.Problem.Subject, subjects) {
			continue
		}
		if rec.Answer.IsCorrect == nil || *rec.Answer.IsCorrect {
			continue
		}

		tags := rec.Problem.TagList()
		wrongAnswers = append(wrongAnswers, WrongAnswer{
			ProblemID:     rec.Problem.ID,
			AssignmentID:  rec.AssignmentID,
			Subject:       rec.Problem.Subject,
			Grade:         rec.Problem.Grade,
			Unit:          rec.Problem.Unit,
			Question:      rec.Problem.Content,
			CorrectAnswer: rec.Problem.Answer,
			StudentAnswer: rec.Answer.Answer,
			Difficulty:    normalizeDifficulty(rec.Problem.Difficulty),
			ProblemType:   rec.Problem.ProblemType,
			Tags:          tags,
			WrongAt:       rec.AnsweredAt,
		})
	}

	return wrongAnswers
}
