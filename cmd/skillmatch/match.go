package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"skillmatch/internal/app"
	"skillmatch/internal/document"
	"skillmatch/internal/domain/matching"
	"skillmatch/internal/infrastructure/fetcher"
	"skillmatch/internal/report"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a resume against a job description",
	Long:  "Score a resume file (pdf, docx or txt) against a job description file or URL and print the match result.",
	RunE:  runMatch,
}

var (
	matchResumeFile string
	matchJobFile    string
	matchJobURL     string
	matchJSON       bool
	matchReportFile string
)

func init() {
	matchCmd.Flags().StringVarP(&matchResumeFile, "resume", "r", "", "Path to the resume (pdf, docx or txt)")
	matchCmd.Flags().StringVarP(&matchJobFile, "job", "j", "", "Path to the job description (pdf, docx or txt)")
	matchCmd.Flags().StringVar(&matchJobURL, "job-url", "", "URL of the job posting, used when --job is not set")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print the result as JSON")
	matchCmd.Flags().StringVar(&matchReportFile, "report", "", "Write the updated resume PDF to this path")
	_ = matchCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	if matchJobFile == "" && matchJobURL == "" {
		return errors.New("must provide either --job or --job-url")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vocab, err := app.LoadVocabulary(cfg.Matching)
	if err != nil {
		return err
	}
	m, err := matching.NewMatcher(vocab, cfg.Matching.Mode, cfg.Matching.Weights)
	if err != nil {
		return err
	}

	resume, err := readDocument(matchResumeFile)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}

	var job string
	if matchJobFile != "" {
		job, err = readDocument(matchJobFile)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Fetch.Timeout+30*time.Second)
		defer cancel()
		job, err = fetcher.New(cfg.Fetch, nil).FetchText(ctx, matchJobURL)
		if err != nil {
			return fmt.Errorf("fetch job description: %w", err)
		}
	}

	a, err := m.Match(resume, job)
	if err != nil {
		return fmt.Errorf("error during matching: %w", err)
	}

	if matchReportFile != "" {
		if err := writeReport(matchReportFile, resume, a); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if matchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	printAnalysis(out, a)
	return nil
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return document.ExtractText(filepath.Base(path), "", data)
}

func writeReport(path, resume string, a matching.Analysis) error {
	var buf bytes.Buffer
	err := report.Generate(&buf, report.Input{
		ResumeText:  resume,
		Result:      a.Result,
		JDSkills:    a.JDSkills,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printAnalysis(w io.Writer, a matching.Analysis) {
	r := a.Result
	fmt.Fprintf(w, "Match score:      %.1f%%\n", r.MatchScore)
	fmt.Fprintf(w, "Text similarity:  %.1f%%\n", r.TextSimilarity)
	fmt.Fprintf(w, "Skill coverage:   %.1f%%\n", r.SkillCoverage)
	fmt.Fprintf(w, "ATS score:        %.1f%%\n", r.ATSScore)
	fmt.Fprintf(w, "Matched skills:   %s\n", listOrNone(r.MatchedSkills))
	fmt.Fprintf(w, "Missing skills:   %s\n", listOrNone(r.MissingSkills))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
