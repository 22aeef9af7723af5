// Package study generates study materials (flashcards, quizzes, a combined
// PDF guide) from indexed videos via the provider's open-ended analysis.
package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hootqna/internal/provider"
)

// Analyzer is the slice of the provider this package needs.
type Analyzer interface {
	Analyze(ctx context.Context, videoID, prompt string) (string, error)
}

// Flashcard is one question/answer pair.
type Flashcard struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// FlashcardSet is a generated deck plus its overview.
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
	Summary    string      `json:"summary,omitempty"`
}

// QuizQuestion is one quiz item, multiple-choice or true/false.
type QuizQuestion struct {
	ID            int             `json:"id"`
	Type          string          `json:"type"`
	Question      string          `json:"question"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Explanation   string          `json:"explanation,omitempty"`
	Topic         string          `json:"topic,omitempty"`
	Timestamp     string          `json:"timestamp,omitempty"`
}

// Quiz is a generated quiz with its questions.
type Quiz struct {
	Title        string         `json:"title"`
	Instructions string         `json:"instructions,omitempty"`
	Questions    []QuizQuestion `json:"questions"`
}

const flashcardPromptTemplate = `Generate %d educational flashcards from this video content at %s difficulty level.

Format your response as a JSON structure with the following format:
{
    "flashcards": [
        {
            "id": 1,
            "question": "Clear, concise question about key concept",
            "answer": "Detailed answer with explanation",
            "topic": "Main topic/subject area",
            "difficulty": "%s",
            "timestamp": "MM:SS (if relevant to specific moment)"
        }
    ],
    "summary": "Brief overview of topics covered in flashcards"
}

Guidelines for flashcard creation:
- Focus on key concepts, definitions, and important facts
- Make questions clear and specific
- Provide detailed answers with context
- Include timestamp if question relates to specific video moment
- Cover diverse aspects of the video content
- Ensure questions test understanding, not just memorization`

const quizPromptTemplate = `Generate %d educational quiz questions from this video content.
Create %s.

Format your response as a JSON structure:
{
    "quiz": {
        "title": "Quiz title based on video content",
        "instructions": "Brief instructions for taking the quiz",
        "questions": [
            {
                "id": 1,
                "type": "multiple_choice" or "true_false",
                "question": "Clear question text",
                "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
                "correct_answer": "A" (for multiple choice) or true/false (for true/false),
                "explanation": "Why this answer is correct",
                "topic": "Topic area",
                "timestamp": "MM:SS (if relevant)"
            }
        ]
    }
}

Guidelines:
- Test understanding of key concepts from the video
- Make multiple choice options plausible but clearly distinguishable
- Include variety in question difficulty
- Provide clear explanations for correct answers
- Reference specific video moments when relevant
- Avoid trick questions - focus on genuine comprehension`

// GenerateFlashcards asks the provider for a deck of numCards flashcards at
// the given difficulty. A response the model did not format as the requested
// JSON is a provider error, not a guess.
func GenerateFlashcards(ctx context.Context, a Analyzer, videoID string, numCards int, difficulty string) (*FlashcardSet, error) {
	if numCards <= 0 {
		numCards = 10
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := fmt.Sprintf(flashcardPromptTemplate, numCards, difficulty, difficulty)
	text, err := a.Analyze(ctx, videoID, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &provider.Error{Op: "flashcards", Message: err.Error()}
	}

	var set FlashcardSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, &provider.Error{Op: "flashcards", Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	if len(set.Flashcards) == 0 {
		return nil, &provider.Error{Op: "flashcards", Message: "response contained no flashcards"}
	}
	return &set, nil
}

// GenerateQuiz asks the provider for a quiz of numQuestions questions.
// quizType is "multiple_choice", "true_false", or "mixed".
func GenerateQuiz(ctx context.Context, a Analyzer, videoID string, numQuestions int, quizType string) (*Quiz, error) {
	if numQuestions <= 0 {
		numQuestions = 8
	}

	var format string
	switch quizType {
	case "multiple_choice":
		format = "multiple choice questions with 4 options (A, B, C, D)"
	case "true_false":
		format = "true/false questions"
	default:
		quizType = "mixed"
		format = fmt.Sprintf("%d multiple choice and %d true/false questions", numQuestions/2, numQuestions/2)
	}

	prompt := fmt.Sprintf(quizPromptTemplate, numQuestions, format)
	text, err := a.Analyze(ctx, videoID, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &provider.Error{Op: "quiz", Message: err.Error()}
	}

	var resp struct {
		Quiz Quiz `json:"quiz"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &provider.Error{Op: "quiz", Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	if len(resp.Quiz.Questions) == 0 {
		return nil, &provider.Error{Op: "quiz", Message: "response contained no questions"}
	}
	return &resp.Quiz, nil
}

// ExtractJSON locates the JSON object embedded in free-form model output:
// everything from the first '{' through the last '}'. Models wrap the
// requested structure in prose or markdown fences often enough that decoding
// the raw text directly is hopeless.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("response contains no JSON object")
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("response contains malformed JSON")
	}
	return json.RawMessage(candidate), nil
}
