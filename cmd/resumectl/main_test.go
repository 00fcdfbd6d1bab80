package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"socioscan-backend/internal/extract/pdftest"
	"socioscan-backend/internal/scoring"
)

func TestBuildReport(t *testing.T) {
	report := buildReport("cv.pdf", strings.Repeat("word ", 247)+"education university degree", scoring.NewWordCountScorer(500, 100))
	if report.WordCount.OverallScore != 50 {
		t.Fatalf("expected word score 50, got %d", report.WordCount.OverallScore)
	}
	if !report.Categories.Categories["Education"] {
		t.Fatalf("expected education flagged, got %+v", report.Categories.Categories)
	}
}

func TestScoreCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	if err := os.WriteFile(path, pdftest.WithWords(100), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score", "--file", path})
	t.Cleanup(func() {
		scoreFile, scoreURL = "", ""
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var report struct {
		WordCount struct {
			OverallScore int `json:"overallScore"`
		} `json:"wordCount"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v (%s)", err, out.String())
	}
	if report.WordCount.OverallScore != 20 {
		t.Fatalf("expected 20, got %d", report.WordCount.OverallScore)
	}
}

func TestScoreRequiresOneSource(t *testing.T) {
	rootCmd.SetArgs([]string{"score"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error without --file or --url")
	}
}

func TestPlansTable(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"plans"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"basic", "$9.99", "enterprise", "Custom"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}
