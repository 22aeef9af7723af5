package study

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"hootqna/internal/provider"
	"hootqna/internal/segment"
)

// GuideContent aggregates everything that goes into a study guide PDF.
// Nil or empty sections are skipped.
type GuideContent struct {
	VideoTitle string
	Summary    string
	Chapters   []provider.Chapter
	Highlights []provider.Highlight
	Flashcards *FlashcardSet
	Quiz       *Quiz
}

// BuildGuidePDF renders content into a PDF under dir and returns the file
// path. The filename is derived from the video title and the current time so
// repeated builds never clobber each other.
func BuildGuidePDF(dir string, content GuideContent) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating guide directory: %w", err)
	}

	title := segment.CleanTitle(content.VideoTitle)
	if title == "" {
		title = "video"
	}
	name := fmt.Sprintf("StudyGuide_%s_%s.pdf", title, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, "Study Guide: "+content.VideoTitle, "", "C", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("January 2, 2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if content.Summary != "" {
		sectionHeading(pdf, "Summary")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5.5, content.Summary, "", "L", false)
		pdf.Ln(3)
	}

	if len(content.Chapters) > 0 {
		sectionHeading(pdf, "Chapters")
		for _, ch := range content.Chapters {
			pdf.SetFont("Helvetica", "B", 11)
			heading := fmt.Sprintf("%s  %s", segment.ToClock(int(ch.StartSec)), ch.Title)
			pdf.MultiCell(0, 5.5, heading, "", "L", false)
			if ch.Summary != "" {
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 5, ch.Summary, "", "L", false)
			}
			pdf.Ln(1.5)
		}
		pdf.Ln(2)
	}

	if len(content.Highlights) > 0 {
		sectionHeading(pdf, "Highlights")
		pdf.SetFont("Helvetica", "", 11)
		for _, h := range content.Highlights {
			line := fmt.Sprintf("%s - %s  %s",
				segment.ToClock(int(h.StartSec)), segment.ToClock(int(h.EndSec)), h.Highlight)
			pdf.MultiCell(0, 5.5, line, "", "L", false)
		}
		pdf.Ln(3)
	}

	if content.Flashcards != nil && len(content.Flashcards.Flashcards) > 0 {
		sectionHeading(pdf, "Flashcards")
		for i, card := range content.Flashcards.Flashcards {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.MultiCell(0, 5.5, fmt.Sprintf("Q%d: %s", i+1, card.Question), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, "A: "+card.Answer, "", "L", false)
			pdf.Ln(1.5)
		}
		pdf.Ln(2)
	}

	if content.Quiz != nil && len(content.Quiz.Questions) > 0 {
		sectionHeading(pdf, "Quiz: "+content.Quiz.Title)
		if content.Quiz.Instructions != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(0, 5, content.Quiz.Instructions, "", "L", false)
			pdf.Ln(1.5)
		}
		for i, q := range content.Quiz.Questions {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.MultiCell(0, 5.5, fmt.Sprintf("%d. %s", i+1, q.Question), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			for _, opt := range q.Options {
				pdf.MultiCell(0, 5, "    "+opt, "", "L", false)
			}
			pdf.Ln(1.5)
		}

		sectionHeading(pdf, "Answer Key")
		pdf.SetFont("Helvetica", "", 10)
		for i, q := range content.Quiz.Questions {
			answer := string(q.CorrectAnswer)
			if len(answer) >= 2 && answer[0] == '"' {
				answer = answer[1 : len(answer)-1]
			}
			line := fmt.Sprintf("%d. %s", i+1, answer)
			if q.Explanation != "" {
				line += " - " + q.Explanation
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing study guide pdf: %w", err)
	}
	return path, nil
}

func sectionHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, text, "", 1, "L", true, 0, "")
	pdf.Ln(2)
}
