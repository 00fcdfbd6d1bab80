package extract

import (
	"context"
	"io"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/storage/object"
)

// Document is extracted text plus the facts needed for reporting.
type Document struct {
	Text      string
	MimeType  string
	SizeBytes int
}

// Pipeline couples the fetcher with the extractors. Fetches are retried per RetryPolicy.
type Pipeline struct {
	Fetcher     *Fetcher
	RetryPolicy apperr.RetryPolicy
	MaxBytes    int64
}

// NewPipeline builds a pipeline with default retry policy.
func NewPipeline(fetcher *Fetcher) *Pipeline {
	return &Pipeline{Fetcher: fetcher, RetryPolicy: apperr.DefaultRetryPolicy, MaxBytes: fetcher.maxBytes}
}

// FromURL fetches the resume at rawURL and extracts its text.
func (p *Pipeline) FromURL(ctx context.Context, rawURL string) (Document, error) {
	var data []byte
	err := apperr.Retry(ctx, p.RetryPolicy, func(ctx context.Context) error {
		var fetchErr error
		data, fetchErr = p.Fetcher.Fetch(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return Document{}, err
	}
	return p.fromBytes(ctx, data, "", rawURL)
}

// FromObject reads a stored object through the gateway and extracts its text.
func (p *Pipeline) FromObject(ctx context.Context, gw object.Gateway, key string) (Document, error) {
	const op = "extract.object"
	var data []byte
	err := apperr.Retry(ctx, p.RetryPolicy, func(ctx context.Context) error {
		rc, err := gw.Open(ctx, key)
		if err != nil {
			return err
		}
		defer rc.Close()
		limit := p.MaxBytes
		if limit <= 0 {
			limit = DefaultMaxBytes
		}
		data, err = io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return apperr.StorageError(op, err)
		}
		if int64(len(data)) > limit {
			return apperr.New(apperr.KindValidation, op, "resume too large", ErrTooLarge)
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return p.fromBytes(ctx, data, "", key)
}

func (p *Pipeline) fromBytes(ctx context.Context, data []byte, declared, name string) (Document, error) {
	mimeType := DetectMimeType(data, declared)
	text, err := TextFromBytes(ctx, data, mimeType, name)
	if err != nil {
		return Document{}, err
	}
	return Document{Text: text, MimeType: mimeType, SizeBytes: len(data)}, nil
}
