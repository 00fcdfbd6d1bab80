package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"socioscan-backend/internal/extract"
	"socioscan-backend/internal/scoring"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/inflight"
	"socioscan-backend/internal/shared/metrics"
	"socioscan-backend/internal/shared/storage/object"
	"socioscan-backend/internal/shared/telemetry"
	"socioscan-backend/internal/shared/util"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultStoreTimeout   = 10 * time.Second
	// DefaultLegacyTimeout caps a legacy URL request across all fetch retries.
	DefaultLegacyTimeout  = extract.DefaultTimeout
)

var (
	ErrNoResume  = errors.New("no resume on file")
	ErrNotPDF    = errors.New("only PDF resumes are accepted")
	ErrTooLarge  = errors.New("resume exceeds upload size limit")
	ErrEmptyFile = errors.New("resume file is empty")
	ErrStoredRef = errors.New("stored resumes must be scanned by their owner")
)

type Service struct {
	Profiles ProfileStore
	Store    object.Gateway
	Pipeline *extract.Pipeline
	Reaper   Reaper
	Guard    inflight.Guard
	// Scanner replaces the in-process category scorer when set.
	Scanner Scanner

	WordScorer     scoring.WordCountScorer
	CategoryScorer scoring.KeywordScorer

	MaxUploadBytes  int64
	SignedURLExpiry time.Duration
	StoreTimeout    time.Duration
	LegacyTimeout   time.Duration
	RetryPolicy     apperr.RetryPolicy

	Now func() time.Time
}

// Upload validates and stores a PDF, points the profile at it and reaps the
// object it replaced.
func (s *Service) Upload(ctx context.Context, userID, requestID string, in UploadInput) (Uploaded, error) {
	const op = "resumes.upload"
	if strings.TrimSpace(userID) == "" {
		return Uploaded{}, apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	release, err := s.acquire(ctx, userID, "upload")
	if err != nil {
		return Uploaded{}, err
	}
	defer release()

	data, err := s.readUpload(in.Body)
	if err != nil {
		return Uploaded{}, err
	}
	if mime := extract.DetectMimeType(data, in.ContentType); mime != extract.MimePDF {
		return Uploaded{}, apperr.New(apperr.KindValidation, op, ErrNotPDF.Error(), ErrNotPDF)
	}

	var obj object.Object
	err = apperr.Retry(ctx, s.retryPolicy(), func(ctx context.Context) error {
		putCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
		defer cancel()
		var putErr error
		obj, putErr = s.Store.Put(putCtx, object.PutInput{
			Owner:       userID,
			Body:        bytes.NewReader(data),
			ContentType: extract.MimePDF,
			FileName:    in.FileName,
		})
		return putErr
	})
	if err != nil {
		return Uploaded{}, err
	}

	previous, err := s.Profiles.SetResumeReference(ctx, userID, obj.URL)
	if err != nil {
		// nothing references the new object yet
		s.reap(ctx, ReapRequest{UserID: userID, Reference: obj.URL, Reason: ReasonOrphaned, RequestID: requestID})
		return Uploaded{}, apperr.New(apperr.KindStorage, op, "failed to save resume reference", err)
	}
	if previous != "" && previous != obj.URL {
		s.reap(ctx, ReapRequest{UserID: userID, Reference: previous, Reason: ReasonReplaced, RequestID: requestID})
	}

	metrics.IncResumeUploads()
	telemetry.Info("resume.uploaded", map[string]any{
		"user_id":    userID,
		"key":        obj.Key,
		"size_bytes": obj.SizeBytes,
		"request_id": requestID,
		"replaced":   previous != "",
	})
	return Uploaded{
		ResumeURL:   obj.URL,
		Key:         obj.Key,
		FileName:    object.BaseName(obj.Key),
		SizeBytes:   obj.SizeBytes,
		ContentType: obj.ContentType,
	}, nil
}

// Current returns the caller's reference and a time-limited view URL.
func (s *Service) Current(ctx context.Context, userID string) (Current, error) {
	const op = "resumes.current"
	ref, err := s.reference(ctx, op, userID)
	if err != nil {
		return Current{}, err
	}
	key, err := s.Store.KeyFromReference(ref)
	if err != nil {
		// A reference outside our store can still be shown, just not signed.
		return Current{ResumeURL: ref}, nil
	}
	expiry := s.signedURLExpiry()
	signCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	viewURL, err := s.Store.SignedURL(signCtx, key, object.BaseName(key), expiry)
	if err != nil {
		return Current{}, err
	}
	return Current{
		ResumeURL: ref,
		Key:       key,
		FileName:  object.BaseName(key),
		ViewURL:   viewURL,
		ExpiresAt: s.now().Add(expiry).UTC(),
	}, nil
}

// Remove clears the reference first, then reaps the object.
func (s *Service) Remove(ctx context.Context, userID, requestID string) error {
	const op = "resumes.remove"
	if strings.TrimSpace(userID) == "" {
		return apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	previous, err := s.Profiles.ClearResumeReference(ctx, userID)
	if err != nil {
		return apperr.New(apperr.KindStorage, op, "failed to clear resume reference", err)
	}
	if previous == "" {
		return nil
	}
	s.reap(ctx, ReapRequest{UserID: userID, Reference: previous, Reason: ReasonRemoved, RequestID: requestID})
	telemetry.Info("resume.removed", map[string]any{"user_id": userID, "request_id": requestID})
	return nil
}

// Scan produces the category report for the caller's current resume, or for
// resumeURL when given. A current reference whose object is gone is cleared.
func (s *Service) Scan(ctx context.Context, userID, resumeURL string) (scoring.Result, error) {
	const op = "resumes.scan"
	release, err := s.acquire(ctx, userID, "scan")
	if err != nil {
		return scoring.Result{}, err
	}
	defer release()

	fromProfile := strings.TrimSpace(resumeURL) == ""
	ref := strings.TrimSpace(resumeURL)
	if fromProfile {
		if ref, err = s.reference(ctx, op, userID); err != nil {
			return scoring.Result{}, err
		}
	} else if err := s.checkOwnership(op, userID, ref); err != nil {
		return scoring.Result{}, err
	}

	res, err := s.scanReference(ctx, ref)
	if err != nil && fromProfile && isMissingObject(err) {
		cleared, clearErr := s.Profiles.ClearResumeReferenceIf(ctx, userID, ref)
		if clearErr != nil {
			telemetry.Error("resume.reconcile_failed", map[string]any{"user_id": userID, "error": clearErr.Error()})
		} else if cleared {
			metrics.IncDanglingReferences()
			telemetry.Warn("resume.dangling_reference_cleared", map[string]any{"user_id": userID, "reference": ref})
		}
		return scoring.Result{}, apperr.New(apperr.KindNotFound, op, ErrNoResume.Error(), err)
	}
	return res, err
}

// ScanURL runs the category scan for an arbitrary URL, with no profile involved.
// Objects in our own store are refused since no caller identity is known.
func (s *Service) ScanURL(ctx context.Context, resumeURL string) (scoring.Result, error) {
	const op = "resumes.scan_url"
	if err := s.checkPublicURL(op, resumeURL); err != nil {
		return scoring.Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.legacyTimeout())
	defer cancel()
	return s.scanReference(ctx, resumeURL)
}

// ParseLegacy scores the resume at resumeURL by word count.
func (s *Service) ParseLegacy(ctx context.Context, resumeURL string) (scoring.Result, error) {
	const op = "resumes.parse_legacy"
	if strings.TrimSpace(resumeURL) == "" {
		return scoring.Result{}, apperr.ValidationError(op, "Missing resume URL")
	}
	if err := s.checkPublicURL(op, resumeURL); err != nil {
		return scoring.Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.legacyTimeout())
	defer cancel()
	start := s.now()
	doc, err := s.document(ctx, resumeURL)
	if err != nil {
		s.observeScan(start, err)
		return scoring.Result{}, err
	}
	res := s.WordScorer.Evaluate(doc.Text)
	s.observeScan(start, nil)
	return res, nil
}

func (s *Service) scanReference(ctx context.Context, ref string) (scoring.Result, error) {
	start := s.now()
	if s.Scanner != nil {
		target, err := s.externalURL(ctx, ref)
		if err != nil {
			s.observeScan(start, err)
			return scoring.Result{}, err
		}
		var res scoring.Result
		err = apperr.Retry(ctx, s.retryPolicy(), func(ctx context.Context) error {
			var scanErr error
			res, scanErr = s.Scanner.Scan(ctx, target)
			return scanErr
		})
		s.observeScan(start, err)
		return res, err
	}

	doc, err := s.document(ctx, ref)
	if err != nil {
		s.observeScan(start, err)
		return scoring.Result{}, err
	}
	res := s.CategoryScorer.Evaluate(doc.Text)
	s.observeScan(start, nil)
	return res, nil
}

// document reads our own objects through the gateway and fetches anything else over HTTP.
func (s *Service) document(ctx context.Context, ref string) (extract.Document, error) {
	if key, err := s.Store.KeyFromReference(ref); err == nil {
		return s.Pipeline.FromObject(ctx, s.Store, key)
	}
	if err := validateURL("resumes.fetch", ref); err != nil {
		return extract.Document{}, err
	}
	return s.Pipeline.FromURL(ctx, ref)
}

// externalURL gives the scan service something it can fetch: a signed URL for
// our own objects, the reference itself otherwise.
func (s *Service) externalURL(ctx context.Context, ref string) (string, error) {
	key, err := s.Store.KeyFromReference(ref)
	if err != nil {
		if verr := validateURL("resumes.scan", ref); verr != nil {
			return "", verr
		}
		return ref, nil
	}
	signCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	return s.Store.SignedURL(signCtx, key, object.BaseName(key), s.signedURLExpiry())
}

// checkOwnership rejects explicit references to another user's stored object.
func (s *Service) checkOwnership(op, userID, ref string) error {
	if err := validateURL(op, ref); err != nil {
		return err
	}
	key, err := s.Store.KeyFromReference(ref)
	if err != nil {
		return nil
	}
	if !strings.HasPrefix(key, util.HashUserKey(userID)+"/") {
		return apperr.New(apperr.KindNotFound, op, ErrNoResume.Error(), ErrNoResume)
	}
	return nil
}

// checkPublicURL accepts only external URLs on routes that carry no identity.
func (s *Service) checkPublicURL(op, ref string) error {
	if err := validateURL(op, ref); err != nil {
		return err
	}
	if _, err := s.Store.KeyFromReference(ref); err == nil {
		return apperr.New(apperr.KindValidation, op, ErrStoredRef.Error(), ErrStoredRef)
	}
	return nil
}

func (s *Service) reference(ctx context.Context, op, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	ref, err := s.Profiles.ResumeReference(ctx, userID)
	if err != nil {
		return "", apperr.New(apperr.KindStorage, op, "failed to load profile", err)
	}
	if ref == "" {
		return "", apperr.New(apperr.KindNotFound, op, ErrNoResume.Error(), ErrNoResume)
	}
	return ref, nil
}

func (s *Service) readUpload(body io.Reader) ([]byte, error) {
	const op = "resumes.upload"
	if body == nil {
		return nil, apperr.New(apperr.KindValidation, op, ErrEmptyFile.Error(), ErrEmptyFile)
	}
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.New(apperr.KindValidation, op, ErrTooLarge.Error(), ErrTooLarge)
		}
		return nil, apperr.New(apperr.KindValidation, op, "failed to read upload", err)
	}
	if int64(len(data)) > limit {
		return nil, apperr.New(apperr.KindValidation, op, fmt.Sprintf("%s (%d bytes)", ErrTooLarge, limit), ErrTooLarge)
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindValidation, op, ErrEmptyFile.Error(), ErrEmptyFile)
	}
	return data, nil
}

func (s *Service) acquire(ctx context.Context, userID, action string) (func(), error) {
	if s.Guard == nil || userID == "" {
		return func() {}, nil
	}
	release, err := s.Guard.Acquire(ctx, userID+":"+action)
	if errors.Is(err, inflight.ErrBusy) {
		return nil, apperr.New(apperr.KindConflict, "resumes."+action, "a "+action+" is already in progress", err)
	}
	if err != nil {
		// A broken guard must not block the user.
		telemetry.Warn("inflight.unavailable", map[string]any{"error": err.Error()})
		return func() {}, nil
	}
	return release, nil
}

func (s *Service) reap(ctx context.Context, req ReapRequest) {
	if s.Reaper != nil {
		s.Reaper.Reap(ctx, req)
	}
}

func (s *Service) observeScan(start time.Time, err error) {
	metrics.ObserveScanDurationMs(float64(s.now().Sub(start).Microseconds()) / 1000.0)
	if err == nil {
		metrics.IncResumeScans()
		return
	}
	metrics.IncResumeScanFailed()
	if errors.Is(err, apperr.Fetch) {
		metrics.IncFetchFailures()
	}
}

func (s *Service) retryPolicy() apperr.RetryPolicy {
	if s.RetryPolicy.Attempts == 0 {
		return apperr.DefaultRetryPolicy
	}
	return s.RetryPolicy
}

func (s *Service) legacyTimeout() time.Duration {
	if s.LegacyTimeout <= 0 {
		return DefaultLegacyTimeout
	}
	return s.LegacyTimeout
}

func (s *Service) storeTimeout() time.Duration {
	if s.StoreTimeout <= 0 {
		return DefaultStoreTimeout
	}
	return s.StoreTimeout
}

func (s *Service) signedURLExpiry() time.Duration {
	if s.SignedURLExpiry <= 0 {
		return object.DefaultSignedURLExpiry
	}
	return s.SignedURLExpiry
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func isMissingObject(err error) bool {
	return errors.Is(err, object.ErrNotFound) || extract.IsNotFound(err)
}

func validateURL(op, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return apperr.ValidationError(op, "resume URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.ValidationError(op, "resume URL must be an absolute http(s) URL")
	}
	return nil
}
