package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"socioscan-backend/internal/extract"
	"socioscan-backend/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume from a local file or a URL",
	Long:  "Extract text from a PDF (or DOCX) and print the word-count score and the category report as JSON.",
	RunE:  runScore,
}

var (
	scoreFile      string
	scoreURL       string
	scoreThreshold int
	scoreCap       int
	scoreTimeout   time.Duration
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "Path to a resume file")
	scoreCmd.Flags().StringVarP(&scoreURL, "url", "u", "", "URL of a resume to fetch")
	scoreCmd.Flags().IntVar(&scoreThreshold, "threshold", 500, "Word count that earns the full score")
	scoreCmd.Flags().IntVar(&scoreCap, "cap", 100, "Maximum word-count score")
	scoreCmd.Flags().DurationVar(&scoreTimeout, "timeout", 30*time.Second, "Fetch timeout for --url")

	rootCmd.AddCommand(scoreCmd)
}

type scoreReport struct {
	Source     string         `json:"source"`
	WordCount  scoring.Result `json:"wordCount"`
	Categories scoring.Result `json:"categories"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	if (scoreFile == "") == (scoreURL == "") {
		return fmt.Errorf("exactly one of --file or --url is required")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		text   string
		source string
		err    error
	)
	if scoreFile != "" {
		source = scoreFile
		text, err = textFromFile(ctx, scoreFile)
	} else {
		source = scoreURL
		pipeline := extract.NewPipeline(extract.NewFetcher(extract.FetchOptions{Timeout: scoreTimeout}))
		var doc extract.Document
		doc, err = pipeline.FromURL(ctx, scoreURL)
		text = doc.Text
	}
	if err != nil {
		return err
	}

	report := buildReport(source, text, scoring.NewWordCountScorer(scoreThreshold, scoreCap))
	return writeJSON(cmd.OutOrStdout(), report)
}

func textFromFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return extract.TextFromBytes(ctx, data, extract.DetectMimeType(data, ""), filepath.Base(path))
}

func buildReport(source, text string, words scoring.WordCountScorer) scoreReport {
	return scoreReport{
		Source:     source,
		WordCount:  words.Evaluate(text),
		Categories: scoring.KeywordScorer{}.Evaluate(text),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
