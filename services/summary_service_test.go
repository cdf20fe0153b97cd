package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerateSummaryTemplateWithoutWeaknesses(t *testing.T) {
	svc := NewSummaryService(nil)
	analysis := &StudentWeaknessAnalysis{StudentName: "최서연", OverallCorrectRate: 95}

	summary := svc.GenerateSummary(context.Background(), analysis, false)
	if !strings.Contains(summary, "95%") {
		t.Errorf("summary should cite the correct rate: %q", summary)
	}
	if !strings.Contains(summary, "취약 단원이 발견되지 않았습니다") {
		t.Errorf("clean analysis should get the encouraging template: %q", summary)
	}
}

func TestGenerateSummaryTemplateNamesWorstUnit(t *testing.T) {
	svc := NewSummaryService(nil)
	analysis := &StudentWeaknessAnalysis{
		StudentName:        "박민준",
		OverallCorrectRate: 55,
		UnitWeaknesses: []UnitWeakness{
			{Subject: "수학", Unit: "이차방정식", CorrectRate: 20},
			{Subject: "수학", Unit: "삼각비", CorrectRate: 60},
		},
	}

	summary := svc.GenerateSummary(context.Background(), analysis, false)
	if !strings.Contains(summary, "이차방정식") || !strings.Contains(summary, "20%") {
		t.Errorf("summary should name the weakest unit: %q", summary)
	}
	if strings.Contains(summary, "삼각비") {
		t.Errorf("only the worst unit belongs in the template: %q", summary)
	}
}

func TestGenerateSummaryClampsAIOutput(t *testing.T) {
	long := strings.Repeat("가", maxSummaryRunes+50)
	svc := NewSummaryService(func(ctx context.Context, prompt string) (string, error) {
		return "  " + long + "  ", nil
	})

	summary := svc.GenerateSummary(context.Background(), &StudentWeaknessAnalysis{}, true)
	if got := utf8.RuneCountInString(summary); got != maxSummaryRunes {
		t.Errorf("summary length = %d runes, want %d", got, maxSummaryRunes)
	}
}

func TestGenerateSummaryAIFailureUsesTemplate(t *testing.T) {
	svc := NewSummaryService(func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	})
	analysis := &StudentWeaknessAnalysis{OverallCorrectRate: 80}

	summary := svc.GenerateSummary(context.Background(), analysis, true)
	if !strings.Contains(summary, "80%") {
		t.Errorf("AI failure should fall back to the template: %q", summary)
	}
}

func TestGenerateSummaryBlankAIOutputUsesTemplate(t *testing.T) {
	svc := NewSummaryService(func(ctx context.Context, prompt string) (string, error) {
		return "   \n  ", nil
	})
	analysis := &StudentWeaknessAnalysis{OverallCorrectRate: 72}

	summary := svc.GenerateSummary(context.Background(), analysis, true)
	if !strings.Contains(summary, "72%") {
		t.Errorf("blank AI output should fall back to the template: %q", summary)
	}
}
