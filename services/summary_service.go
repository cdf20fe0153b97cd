package services

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// maxSummaryRunes caps the parent-facing summary length
const maxSummaryRunes = 200

// SummaryService produces the short natural-language summary attached to an
// analysis. The AI path is best-effort; the template fallback always works.
type SummaryService struct {
	generate GenerateTextFunc
}

// NewSummaryService creates a summary service. Pass nil to run template-only.
func NewSummaryService(generate GenerateTextFunc) *SummaryService {
	return &SummaryService{generate: generate}
}

// GenerateSummary returns a summary for the analysis, at most 200 runes.
// It never fails; any AI problem degrades to the template.
func (s *SummaryService) GenerateSummary(ctx context.Context, analysis *StudentWeaknessAnalysis, allowAI bool) string {
	if allowAI && s.generate != nil {
		raw, err := s.generate(ctx, buildSummaryPrompt(analysis))
		if err == nil {
			summary := strings.TrimSpace(raw)
			if summary != "" {
				return clampRunes(summary, maxSummaryRunes)
			}
		} else {
			log.Printf("SummaryService: AI summary failed, using template: %v", err)
		}
	}
	return fallbackSummary(analysis)
}

func buildSummaryPrompt(analysis *StudentWeaknessAnalysis) string {
	var sb strings.Builder
	sb.WriteString("당신은 학원 강사입니다. 학부모에게 보낼 학습 분석 요약을 작성해 주세요.\n\n")
	sb.WriteString(fmt.Sprintf("학생: %s\n", analysis.StudentName))
	sb.WriteString(fmt.Sprintf("전체 정답률: %d%% (%d문제 중 %d문제 오답)\n", analysis.OverallCorrectRate, analysis.TotalProblems, analysis.TotalWrong))

	if len(analysis.UnitWeaknesses) > 0 {
		sb.WriteString("취약 단원:\n")
		for i, uw := range analysis.UnitWeaknesses {
			if i >= 3 {
				break
			}
			sb.WriteString(fmt.Sprintf("- %s %s: 정답률 %d%% (취약도 %d/5)\n", uw.Subject, uw.Unit, uw.CorrectRate, uw.WeaknessLevel))
		}
	}
	if len(analysis.TopPatterns) > 0 {
		sb.WriteString("주요 오답 패턴:\n")
		for i, p := range analysis.TopPatterns {
			if i >= 3 {
				break
			}
			sb.WriteString(fmt.Sprintf("- %s (%d회)\n", p.Description, p.Frequency))
		}
	}

	sb.WriteString("\n200자 이내의 한국어 문단 하나로, 격려하는 어조로 작성하세요. 제목이나 목록 없이 본문만 쓰세요.")
	return sb.String()
}

// fallbackSummary is the deterministic template used when the AI path is
// unavailable.
func fallbackSummary(analysis *StudentWeaknessAnalysis) string {
	if len(analysis.UnitWeaknesses) == 0 {
		return fmt.Sprintf("현재 전체 정답률은 %d%%입니다. 뚜렷한 취약 단원이 발견되지 않았습니다. 지금처럼 꾸준히 학습을 이어가면 좋겠습니다.", analysis.OverallCorrectRate)
	}
	worst := analysis.UnitWeaknesses[0]
	return clampRunes(fmt.Sprintf("현재 전체 정답률은 %d%%입니다. %s %s 단원의 정답률이 %d%%로 가장 취약하므로 해당 단원의 집중 복습을 권장합니다.",
		analysis.OverallCorrectRate, worst.Subject, worst.Unit, worst.CorrectRate), maxSummaryRunes)
}

func clampRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
