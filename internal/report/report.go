// Package report renders the downloadable "Updated Resume" PDF for a match.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"skillmatch/internal/domain/matching"
)

const ContentType = "application/pdf"

type Input struct {
	ResumeText string
	Result     matching.Result
	// JDSkills is the full skill set found in the job description; it is
	// listed as the keywords to include.
	JDSkills    []string
	GeneratedAt time.Time
}

func Generate(w io.Writer, in Input) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Updated Resume", false)
	pdf.SetCreator("skillmatch", false)
	if !in.GeneratedAt.IsZero() {
		pdf.SetCreationDate(in.GeneratedAt)
	}
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Updated Resume", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	r := in.Result
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"Match score: %.1f%%   Text similarity: %.1f%%   Skill coverage: %.1f%%   ATS: %.1f%%",
		r.MatchScore, r.TextSimilarity, r.SkillCoverage, r.ATSScore,
	), "", "L", false)
	pdf.Ln(6)

	section(pdf, tr, "Original Resume:", in.ResumeText)
	section(pdf, tr, "Matched Keywords (from JD):", joinSkills(r.MatchedSkills))
	section(pdf, tr, "Suggested Keywords to Include:", joinSkills(in.JDSkills))

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title, body string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(sanitize(body)), "", "L", false)
	pdf.Ln(6)
}

func joinSkills(skills []string) string {
	if len(skills) == 0 {
		return "-"
	}
	return strings.Join(skills, ", ")
}

// sanitize drops control characters the core fonts cannot draw.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
