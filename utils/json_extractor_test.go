package utils

import (
	"errors"
	"testing"
)

func TestExtractJSONFromCodeFence(t *testing.T) {
	response := "분석 결과입니다:\n```json\n{\"level\": 3, \"unit\": \"이차방정식\"}\n```\n참고해 주세요."
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"level": 3, "unit": "이차방정식"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractJSONFromBareFence(t *testing.T) {
	response := "```\n[1, 2, 3]\n```"
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[1, 2, 3]" {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONFromSurroundingProse(t *testing.T) {
	response := `네, 알겠습니다. {"ok": true, "note": "중괄호 } 포함 문자열"} 이상입니다.`
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ok": true, "note": "중괄호 } 포함 문자열"}` {
		t.Errorf("bracket matching should respect strings, got %q", got)
	}
}

func TestExtractJSONNested(t *testing.T) {
	response := `{"outer": {"inner": [1, {"deep": true}]}}`
	got, err := ExtractJSON(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != response {
		t.Errorf("nested payload mangled: %q", got)
	}
}

func TestExtractJSONNoPayload(t *testing.T) {
	for _, response := range []string{"", "죄송합니다, JSON을 만들 수 없습니다.", "{broken"} {
		if _, err := ExtractJSON(response); !errors.Is(err, ErrNoJSONFound) {
			t.Errorf("response %q: expected ErrNoJSONFound, got %v", response, err)
		}
	}
}

func TestExtractJSONTo(t *testing.T) {
	var parsed struct {
		Level int    `json:"level"`
		Unit  string `json:"unit"`
	}
	response := "```json\n{\"level\": 5, \"unit\": \"삼각비\"}\n```"
	if err := ExtractJSONTo(response, &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Level != 5 || parsed.Unit != "삼각비" {
		t.Errorf("unmarshal wrong: %+v", parsed)
	}
}

func TestExtractJSONToTypeMismatch(t *testing.T) {
	var parsed []int
	if err := ExtractJSONTo(`{"not": "an array"}`, &parsed); err == nil {
		t.Fatal("expected an unmarshal error")
	}
}
