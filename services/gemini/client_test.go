package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateTextReturnsFirstCandidate(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "프롬프트" {
			t.Errorf("prompt not carried: %+v", req.Contents)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.Temperature != 0.3 {
			t.Errorf("generation config wrong: %+v", req.GenerationConfig)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "응답 텍스트"}]}, "finishReason": "STOP"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	got, err := client.GenerateText(context.Background(), "프롬프트")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "응답 텍스트" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(gotPath, "test-model") {
		t.Errorf("model not in path: %q", gotPath)
	}
}

func TestGenerateTextNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected an error on 429")
	} else if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestGenerateTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 400, "message": "invalid argument"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected an error from the API error body")
	} else if !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("error should carry the API message: %v", err)
	}
}

func TestGenerateTextNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected an error when no candidates come back")
	}
}
