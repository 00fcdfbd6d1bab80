// Package scanservice calls an external resume scan service that implements
// POST /scan_resume (form field resumeUrl).
package scanservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"socioscan-backend/internal/scoring"
	"socioscan-backend/internal/shared/apperr"
)

const scanPath = "/scan_resume"

// Response is the wire shape of a successful scan.
type Response struct {
	OverallScore   float64            `json:"overallScore"`
	CategoryScores map[string]float64 `json:"categoryScores"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Client talks to a scan service at BaseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A zero timeout uses 30s.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("SCAN_SERVICE_URL is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}, nil
}

// Scan asks the service to score the resume at resumeURL.
func (c *Client) Scan(ctx context.Context, resumeURL string) (scoring.Result, error) {
	const op = "scanservice.Scan"
	if strings.TrimSpace(resumeURL) == "" {
		return scoring.Result{}, apperr.ValidationError(op, "resumeUrl is required")
	}

	form := url.Values{"resumeUrl": {resumeURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scanPath, strings.NewReader(form.Encode()))
	if err != nil {
		return scoring.Result{}, apperr.New(apperr.KindInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoring.Result{}, apperr.FetchError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return scoring.Result{}, apperr.FetchError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		detail := strings.TrimSpace(eb.Detail)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return scoring.Result{}, statusError(op, resp.StatusCode, detail)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return scoring.Result{}, apperr.New(apperr.KindParse, op, "decode scan response", err)
	}
	return scoring.FromCategoryScores(out.OverallScore, out.CategoryScores), nil
}

// StatusError reports a non-2xx answer from the scan service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scan service returned %d: %s", e.StatusCode, e.Detail)
}

// Retryable reports whether the service may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func statusError(op string, status int, detail string) error {
	se := &StatusError{StatusCode: status, Detail: detail}
	switch {
	case status == http.StatusBadRequest:
		return apperr.New(apperr.KindValidation, op, detail, se)
	case status == http.StatusForbidden:
		return apperr.New(apperr.KindStorage, op, detail, se)
	default:
		return apperr.New(apperr.KindFetch, op, detail, se)
	}
}
