package pdfco

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	})
}

func TestExtractTextSucceedsAfterPolling(t *testing.T) {
	var checks int32
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/v1/pdf/convert/to/text", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("api key header missing")
		}
		fmt.Fprintf(w, `{"jobId": "job-1", "url": "%s/result", "pageCount": 3}`, server.URL)
	})
	mux.HandleFunc("/v1/job/check", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("jobid") != "job-1" {
			t.Errorf("unexpected jobid %q", r.URL.Query().Get("jobid"))
		}
		if atomic.AddInt32(&checks, 1) < 3 {
			w.Write([]byte(`{"status": "working"}`))
			return
		}
		w.Write([]byte(`{"status": "success"}`))
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  이차방정식 x^2 - 5x + 6 = 0 의 해를 구하시오.  \n"))
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	result, err := testClient(server.URL).ExtractText(context.Background(), "https://files.example.com/scan.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PageCount != 3 {
		t.Errorf("page count = %d, want 3", result.PageCount)
	}
	if strings.HasPrefix(result.Text, " ") || strings.HasSuffix(result.Text, "\n") {
		t.Errorf("result text should be trimmed: %q", result.Text)
	}
	if got := atomic.LoadInt32(&checks); got != 3 {
		t.Errorf("expected 3 status checks, got %d", got)
	}
}

func TestExtractTextJobFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pdf/convert/to/text", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobId": "job-2", "url": ""}`))
	})
	mux.HandleFunc("/v1/job/check", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "failed"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	if _, err := testClient(server.URL).ExtractText(context.Background(), "https://files.example.com/scan.pdf"); err == nil {
		t.Fatal("expected an error for a failed job")
	}
}

func TestExtractTextPollingTimeout(t *testing.T) {
	var checks int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pdf/convert/to/text", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobId": "job-3", "url": ""}`))
	})
	mux.HandleFunc("/v1/job/check", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checks, 1)
		w.Write([]byte(`{"status": "working"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := testClient(server.URL).ExtractText(context.Background(), "https://files.example.com/scan.pdf")
	if !errors.Is(err, ErrJobTimeout) {
		t.Fatalf("expected ErrJobTimeout, got %v", err)
	}
	if got := atomic.LoadInt32(&checks); got != 5 {
		t.Errorf("expected exactly maxPollAttempts checks, got %d", got)
	}
}

func TestExtractTextRejectedJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": true, "message": "invalid url"}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).ExtractText(context.Background(), "bad"); err == nil {
		t.Fatal("expected an error for a rejected job")
	} else if !strings.Contains(err.Error(), "invalid url") {
		t.Errorf("rejection message lost: %v", err)
	}
}

func TestExtractTextContextCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pdf/convert/to/text", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobId": "job-4", "url": ""}`))
	})
	mux.HandleFunc("/v1/job/check", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "working"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		PollInterval:    50 * time.Millisecond,
		MaxPollAttempts: 100,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := client.ExtractText(ctx, "https://files.example.com/scan.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGeneratePDF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pdf/convert/from/html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobId": "job-5", "url": "https://cdn.pdf.co/out.pdf"}`))
	})
	mux.HandleFunc("/v1/job/check", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	url, err := testClient(server.URL).GeneratePDF(context.Background(), "<html></html>", "worksheet.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.pdf.co/out.pdf" {
		t.Errorf("got %q", url)
	}
}
