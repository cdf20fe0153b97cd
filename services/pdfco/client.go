package pdfco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// BaseURL is the PDF.co API base URL
	BaseURL = "https://api.pdf.co"
	// DefaultPollInterval is the fixed delay between job status checks
	DefaultPollInterval = 3 * time.Second
	// DefaultMaxPollAttempts caps how many status checks a job gets before
	// the client gives up with a timeout error
	DefaultMaxPollAttempts = 40
)

// ErrJobTimeout is returned when an async job exceeds the polling cap
var ErrJobTimeout = fmt.Errorf("pdf.co job did not finish within the polling limit")

// Client handles PDF.co OCR and PDF generation calls. All long-running
// operations are async jobs polled with a fixed interval and a hard attempt
// cap, never an unbounded wait.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
}

// Config holds configuration for the PDF.co client
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
}

// NewClient creates a new PDF.co client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxPollAttempts == 0 {
		config.MaxPollAttempts = DefaultMaxPollAttempts
	}

	return &Client{
		apiKey:          config.APIKey,
		baseURL:         config.BaseURL,
		httpClient:      &http.Client{Timeout: config.Timeout},
		pollInterval:    config.PollInterval,
		maxPollAttempts: config.MaxPollAttempts,
	}
}

type jobResponse struct {
	JobID     string `json:"jobId"`
	URL       string `json:"url"` // Result URL, valid once the job succeeds
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	PageCount int    `json:"pageCount"`
}

type jobStatus struct {
	Status string `json:"status"` // "working", "success", "failed", "aborted"
}

// OCRResult holds the outcome of a PDF-to-text conversion
type OCRResult struct {
	Text      string
	PageCount int
}

// ExtractText runs OCR-backed PDF-to-text conversion on a stored file URL
func (c *Client) ExtractText(ctx context.Context, fileURL string) (*OCRResult, error) {
	job, err := c.startJob(ctx, "/v1/pdf/convert/to/text", map[string]interface{}{
		"url":   fileURL,
		"async": true,
		"ocr":   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR job: %w", err)
	}

	if err := c.waitForJob(ctx, job.JobID); err != nil {
		return nil, err
	}

	text, err := c.fetchResult(ctx, job.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch OCR result: %w", err)
	}

	return &OCRResult{
		Text:      strings.TrimSpace(string(text)),
		PageCount: job.PageCount,
	}, nil
}

// GeneratePDF renders HTML into a PDF and returns the hosted result URL
func (c *Client) GeneratePDF(ctx context.Context, html, name string) (string, error) {
	job, err := c.startJob(ctx, "/v1/pdf/convert/from/html", map[string]interface{}{
		"html":  html,
		"name":  name,
		"async": true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start PDF generation job: %w", err)
	}

	if err := c.waitForJob(ctx, job.JobID); err != nil {
		return "", err
	}

	return job.URL, nil
}

// startJob posts an async job request and returns the job handle
func (c *Client) startJob(ctx context.Context, path string, payload map[string]interface{}) (*jobResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pdf.co returned status %d: %s", resp.StatusCode, string(body))
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job response: %w", err)
	}

	if job.Error {
		return nil, fmt.Errorf("pdf.co job rejected: %s", job.Message)
	}

	return &job, nil
}

// waitForJob polls the job status endpoint with a fixed interval until the
// job finishes or the attempt cap is hit.
func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		status, err := c.checkJob(ctx, jobID)
		if err != nil {
			return err
		}

		switch status {
		case "success":
			return nil
		case "failed", "aborted":
			return fmt.Errorf("pdf.co job %s %s", jobID, status)
		}
		// "working": keep polling
	}

	return fmt.Errorf("%w: job %s after %d attempts", ErrJobTimeout, jobID, c.maxPollAttempts)
}

func (c *Client) checkJob(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/job/check?jobid="+jobID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("job check returned status %d", resp.StatusCode)
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("failed to decode job status: %w", err)
	}

	return status.Status, nil
}

func (c *Client) fetchResult(ctx context.Context, resultURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("result fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
