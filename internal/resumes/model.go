package resumes

import (
	"context"
	"io"
	"time"

	"socioscan-backend/internal/scoring"
)

// ProfileStore is the slice of the profile service resumes depend on.
type ProfileStore interface {
	SetResumeReference(ctx context.Context, userID, url string) (string, error)
	ClearResumeReference(ctx context.Context, userID string) (string, error)
	ClearResumeReferenceIf(ctx context.Context, userID, expected string) (bool, error)
	ResumeReference(ctx context.Context, userID string) (string, error)
}

// Scanner is an external category scanner, e.g. the scan service client.
type Scanner interface {
	Scan(ctx context.Context, resumeURL string) (scoring.Result, error)
}

// UploadInput is one multipart file.
type UploadInput struct {
	Body        io.Reader
	FileName    string
	ContentType string
}

// Uploaded describes the stored resume and its new reference.
type Uploaded struct {
	ResumeURL   string `json:"resumeURL"`
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	SizeBytes   int64  `json:"sizeBytes"`
	ContentType string `json:"contentType"`
}

// Current is the caller's reference plus a short-lived view URL.
type Current struct {
	ResumeURL string    `json:"resumeURL"`
	Key       string    `json:"key,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	ViewURL   string    `json:"viewURL,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
