package resumes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioscan-backend/internal/extract"
	"socioscan-backend/internal/extract/pdftest"
	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/scoring"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/inflight"
	"socioscan-backend/internal/shared/storage/object"
	localstore "socioscan-backend/internal/shared/storage/object/local"
)

type fixture struct {
	svc   *Service
	store *localstore.Store
	repo  *profiles.MemoryRepo
	guard *inflight.MemoryGuard
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := localstore.New(localstore.Config{
		BaseDir:       t.TempDir(),
		PublicBaseURL: "http://localhost:8080",
		SigningKey:    []byte("test-signing-key"),
	})
	repo := profiles.NewMemoryRepo()
	guard := inflight.NewMemoryGuard(time.Minute)
	pipeline := extract.NewPipeline(extract.NewFetcher(extract.FetchOptions{Timeout: 2 * time.Second}))
	pipeline.RetryPolicy = apperr.RetryPolicy{Attempts: 1}

	reaper := NewObjectReaper(store, nil, time.Second)
	reaper.Policy = apperr.RetryPolicy{Attempts: 1}

	svc := &Service{
		Profiles:    profiles.NewService(repo),
		Store:       store,
		Pipeline:    pipeline,
		Reaper:      reaper,
		Guard:       guard,
		WordScorer:  scoring.NewWordCountScorer(0, 0),
		RetryPolicy: apperr.RetryPolicy{Attempts: 1},
	}
	return fixture{svc: svc, store: store, repo: repo, guard: guard}
}

func pdfUpload(data []byte) UploadInput {
	return UploadInput{Body: bytes.NewReader(data), FileName: "resume.pdf", ContentType: "application/pdf"}
}

func objectExists(t *testing.T, store *localstore.Store, ref string) bool {
	t.Helper()
	key, err := store.KeyFromReference(ref)
	require.NoError(t, err)
	rc, err := store.Open(context.Background(), key)
	if errors.Is(err, object.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	_ = rc.Close()
	return true
}

func TestUploadStoresObjectAndReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.Upload(ctx, "user-1", "req-1", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.ResumeURL, "http://localhost:8080/api/v1/objects/"))
	assert.Equal(t, "resume.pdf", up.FileName)
	assert.Equal(t, extract.MimePDF, up.ContentType)

	ref, err := f.svc.Profiles.ResumeReference(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, up.ResumeURL, ref)

	cur, err := f.svc.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, up.ResumeURL, cur.ResumeURL)
	assert.NotEmpty(t, cur.ViewURL)
	assert.True(t, cur.ExpiresAt.After(time.Now()))
}

func TestUploadReplacesAndReapsPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)
	second, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(30)))
	require.NoError(t, err)
	require.NotEqual(t, first.ResumeURL, second.ResumeURL)

	assert.False(t, objectExists(t, f.store, first.ResumeURL))
	assert.True(t, objectExists(t, f.store, second.ResumeURL))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), "user-1", "", UploadInput{
		Body:        strings.NewReader("plain text resume"),
		FileName:    "resume.txt",
		ContentType: "text/plain",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	ref, err := f.svc.Profiles.ResumeReference(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestUploadRejectsOversizedAndEmpty(t *testing.T) {
	f := newFixture(t)
	f.svc.MaxUploadBytes = 64

	_, err := f.svc.Upload(context.Background(), "user-1", "", pdfUpload(pdftest.WithWords(50)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.svc.Upload(context.Background(), "user-1", "", pdfUpload(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestUploadRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), "", "", pdfUpload(pdftest.WithWords(5)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestUploadBusyReturnsConflict(t *testing.T) {
	f := newFixture(t)
	release, err := f.guard.Acquire(context.Background(), "user-1:upload")
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Upload(context.Background(), "user-1", "", pdfUpload(pdftest.WithWords(5)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCurrentWithoutResume(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Current(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCurrentForeignReferenceIsNotSigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.SetResumeReference(ctx, "user-1", "https://cdn.example.com/old/resume.pdf")
	require.NoError(t, err)

	cur, err := f.svc.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/old/resume.pdf", cur.ResumeURL)
	assert.Empty(t, cur.ViewURL)
}

func TestRemoveClearsReferenceThenDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, "user-1", "req-2"))
	ref, err := f.svc.Profiles.ResumeReference(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.False(t, objectExists(t, f.store, up.ResumeURL))

	// nothing left to remove
	require.NoError(t, f.svc.Remove(ctx, "user-1", "req-3"))
}

func TestScanCurrentResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pdf := pdftest.FromLines(
		"education university degree bachelor master",
		"project developed built",
		"experience work job company",
		"skills",
	)
	_, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdf))
	require.NoError(t, err)

	res, err := f.svc.Scan(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, scoring.SourceCategories, res.Source)
	assert.Equal(t, 52, res.OverallScore)
	assert.Equal(t, 100, res.CategoryScores[scoring.CategoryEducation])
	assert.Equal(t, 60, res.CategoryScores[scoring.CategoryProjects])
	assert.Equal(t, 80, res.CategoryScores[scoring.CategoryWorkExperience])
	assert.Equal(t, 20, res.CategoryScores[scoring.CategoryTechnicalSkills])
	assert.Equal(t, 0, res.CategoryScores[scoring.CategoryAchievements])
	assert.InDelta(t, 0.6, res.ComponentsComplete, 1e-9)
}

func TestScanClearsDanglingReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, up.ResumeURL))

	_, err = f.svc.Scan(ctx, "user-1", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	ref, err := f.svc.Profiles.ResumeReference(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestScanRejectsAnotherUsersObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.Upload(ctx, "owner", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)

	_, err = f.svc.Scan(ctx, "intruder", up.ResumeURL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestScanUsesExternalScanner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := &stubScanner{result: scoring.FromCategoryScores(40, map[string]float64{scoring.CategoryEducation: 40})}
	f.svc.Scanner = scanner

	_, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)

	res, err := f.svc.Scan(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, 40, res.OverallScore)
	require.Len(t, scanner.urls, 1)
	assert.Contains(t, scanner.urls[0], "token=")
}

func TestParseLegacyScores(t *testing.T) {
	cases := []struct {
		name     string
		words    int
		score    int
		feedback string
	}{
		{name: "long resume", words: 2000, score: 100, feedback: scoring.FeedbackSufficient},
		{name: "short resume", words: 100, score: 20, feedback: scoring.FeedbackBrief},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pdf := pdftest.WithWords(tc.words)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = w.Write(pdf)
			}))
			defer server.Close()

			f := newFixture(t)
			res, err := f.svc.ParseLegacy(context.Background(), server.URL+"/resume.pdf")
			require.NoError(t, err)
			assert.Equal(t, tc.score, res.OverallScore)
			assert.Equal(t, tc.feedback, res.Feedback)
			assert.Equal(t, tc.words, res.WordCount)
		})
	}
}

func TestParseLegacyMissingURL(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ParseLegacy(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Missing resume URL", apperr.MessageOf(err))
}

func TestScanURLFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := newFixture(t)
	_, err := f.svc.ScanURL(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, extract.StatusCode(err))
}

func TestLegacyCallsRefuseStoredReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	up, err := f.svc.Upload(ctx, "user-1", "", pdfUpload(pdftest.WithWords(20)))
	require.NoError(t, err)

	_, err = f.svc.ParseLegacy(ctx, up.ResumeURL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrStoredRef)

	_, err = f.svc.ScanURL(ctx, up.ResumeURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoredRef)
}

func TestLegacyCallsBoundTotalFetchTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	f := newFixture(t)
	f.svc.Pipeline.RetryPolicy = apperr.RetryPolicy{Attempts: 3, BaseDelay: 10 * time.Millisecond}
	f.svc.LegacyTimeout = 200 * time.Millisecond

	start := time.Now()
	_, err := f.svc.ParseLegacy(context.Background(), server.URL+"/slow.pdf")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	start = time.Now()
	_, err = f.svc.ScanURL(context.Background(), server.URL+"/slow.pdf")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

type stubScanner struct {
	result scoring.Result
	urls   []string
}

func (s *stubScanner) Scan(ctx context.Context, resumeURL string) (scoring.Result, error) {
	s.urls = append(s.urls, resumeURL)
	return s.result, nil
}
