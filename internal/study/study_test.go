package study

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hootqna/internal/provider"
)

type fakeAnalyzer struct {
	response string
	err      error
	prompt   string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestGenerateFlashcardsParsesWrappedJSON(t *testing.T) {
	a := &fakeAnalyzer{response: "Sure! Here are your flashcards:\n```json\n" + `{
		"flashcards": [
			{"id": 1, "question": "What is a goroutine?", "answer": "A lightweight thread.", "topic": "concurrency", "difficulty": "easy", "timestamp": "01:30"}
		],
		"summary": "Covers Go concurrency basics."
	}` + "\n```\nLet me know if you need more."}

	set, err := GenerateFlashcards(context.Background(), a, "vid-1", 5, "easy")
	if err != nil {
		t.Fatalf("GenerateFlashcards: %v", err)
	}
	if len(set.Flashcards) != 1 {
		t.Fatalf("expected 1 flashcard, got %d", len(set.Flashcards))
	}
	if set.Flashcards[0].Question != "What is a goroutine?" {
		t.Errorf("unexpected question %q", set.Flashcards[0].Question)
	}
	if !strings.Contains(a.prompt, "5 educational flashcards") {
		t.Errorf("prompt did not request 5 cards: %q", a.prompt)
	}
	if !strings.Contains(a.prompt, "easy difficulty") {
		t.Errorf("prompt did not carry difficulty: %q", a.prompt)
	}
}

func TestGenerateFlashcardsMalformedResponse(t *testing.T) {
	a := &fakeAnalyzer{response: "I could not generate flashcards for this video."}

	_, err := GenerateFlashcards(context.Background(), a, "vid-1", 5, "medium")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider.Error, got %v", err)
	}
}

func TestGenerateFlashcardsAnalyzerError(t *testing.T) {
	want := &provider.Error{Op: "analyze", Status: 429, Message: "rate limited"}
	a := &fakeAnalyzer{err: want}

	_, err := GenerateFlashcards(context.Background(), a, "vid-1", 5, "medium")
	if !errors.Is(err, want) {
		t.Fatalf("expected analyzer error to pass through, got %v", err)
	}
}

func TestGenerateQuizMixed(t *testing.T) {
	a := &fakeAnalyzer{response: `{
		"quiz": {
			"title": "Go Basics",
			"instructions": "Pick the best answer.",
			"questions": [
				{"id": 1, "type": "multiple_choice", "question": "Which keyword starts a goroutine?",
				 "options": ["A) run", "B) go", "C) spawn", "D) fork"], "correct_answer": "B",
				 "explanation": "The go keyword starts a goroutine."},
				{"id": 2, "type": "true_false", "question": "Channels are typed.", "correct_answer": true}
			]
		}
	}`}

	quiz, err := GenerateQuiz(context.Background(), a, "vid-1", 8, "mixed")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if quiz.Title != "Go Basics" {
		t.Errorf("unexpected title %q", quiz.Title)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}
	if !strings.Contains(a.prompt, "4 multiple choice and 4 true/false") {
		t.Errorf("mixed prompt split wrong: %q", a.prompt)
	}
}

func TestGenerateQuizEmptyQuestions(t *testing.T) {
	a := &fakeAnalyzer{response: `{"quiz": {"title": "Empty", "questions": []}}`}

	_, err := GenerateQuiz(context.Background(), a, "vid-1", 4, "true_false")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider.Error for empty quiz, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON(`prefix {"a": {"b": 1}} suffix`)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(raw) != `{"a": {"b": 1}}` {
		t.Errorf("unexpected extraction %q", raw)
	}

	if _, err := ExtractJSON("no json here"); err == nil {
		t.Error("expected error for text without JSON")
	}
	if _, err := ExtractJSON(`{"unterminated": `); err == nil {
		t.Error("expected error for text without closing brace")
	}
}

func TestBuildGuidePDF(t *testing.T) {
	dir := t.TempDir()

	path, err := BuildGuidePDF(dir, GuideContent{
		VideoTitle: "Intro to Channels",
		Summary:    "An overview of channel semantics.",
		Chapters: []provider.Chapter{
			{ChapterNumber: 1, StartSec: 0, EndSec: 90, Title: "Basics", Summary: "Declaring channels."},
		},
		Highlights: []provider.Highlight{
			{Highlight: "Buffered channels", StartSec: 30, EndSec: 60},
		},
		Flashcards: &FlashcardSet{Flashcards: []Flashcard{
			{ID: 1, Question: "What does close(ch) do?", Answer: "Marks the channel closed."},
		}},
	})
	if err != nil {
		t.Fatalf("BuildGuidePDF: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "StudyGuide_intro_to_channels_") {
		t.Errorf("unexpected filename %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat guide: %v", err)
	}
	if info.Size() == 0 {
		t.Error("guide PDF is empty")
	}
}
