// Package domain holds the interview entities, the error taxonomy and the
// ports implemented by adapters.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUpstream          = errors.New("upstream error")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrPersistence       = errors.New("persistence error")
	ErrInternal          = errors.New("internal error")
)

// ValidationError carries a client-facing message for a rejected request.
// It matches ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// NewValidationError builds a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Level is the difficulty tag of a question.
type Level string

const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

// Levels lists the valid levels in ascending difficulty.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

// Valid reports whether l is exactly one of Easy, Medium or Hard.
func (l Level) Valid() bool {
	switch l {
	case LevelEasy, LevelMedium, LevelHard:
		return true
	}
	return false
}

// DefaultTime is the answer time in seconds used when a generated question
// carries none. Values sit inside the advisory bounds for each level.
func (l Level) DefaultTime() int {
	switch l {
	case LevelEasy:
		return 25
	case LevelMedium:
		return 60
	case LevelHard:
		return 120
	}
	return 60
}

// ParseLevel accepts a level name in any letter case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return LevelEasy, nil
	case "medium":
		return LevelMedium, nil
	case "hard":
		return LevelHard, nil
	}
	return "", fmt.Errorf("%w: unknown level %q", ErrInvalidArgument, s)
}

// Question is one generated interview question.
type Question struct {
	Level    Level  `json:"level"`
	Question string `json:"question"`
	Time     int    `json:"time"`
}

// AnswerSubmission is one answered question sent back by the client.
type AnswerSubmission struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Level    Level  `json:"level"`
}

// AnswerScore is the normalized result of scoring a single answer.
// Flagged marks a score the model returned in a non-numeric form.
type AnswerScore struct {
	Score      float64
	Feedback   string
	Strengths  []string
	Weaknesses []string
	Flagged    bool
}

// AnswerAssessment is a scored answer as reported and persisted.
type AnswerAssessment struct {
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Level        Level     `json:"level"`
	Score        float64   `json:"score"`
	Feedback     string    `json:"feedback"`
	Strengths    []string  `json:"strengths"`
	Weaknesses   []string  `json:"weaknesses"`
	ScoreFlagged bool      `json:"scoreFlagged,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// AggregateAssessment is the cross-question synthesis of one interview.
type AggregateAssessment struct {
	OverallFeedback   string   `json:"overallFeedback"`
	OverallStrengths  []string `json:"overallStrengths"`
	OverallWeaknesses []string `json:"overallWeaknesses"`
	Recommendation    string   `json:"recommendation"`
}

// InterviewResult is one completed interview. Immutable once recorded.
type InterviewResult struct {
	ID                string             `json:"id"`
	InterviewDate     time.Time          `json:"interviewDate"`
	Answers           []AnswerAssessment `json:"answers"`
	FinalScore        float64            `json:"finalScore"`
	OverallFeedback   string             `json:"overallFeedback"`
	OverallStrengths  []string           `json:"overallStrengths"`
	OverallWeaknesses []string           `json:"overallWeaknesses"`
	Recommendation    string             `json:"recommendation"`
	Summary           string             `json:"summary"`
}

// InterviewCompletedEvent is published after an interview is persisted.
type InterviewCompletedEvent struct {
	CandidateID    string    `json:"candidateId"`
	InterviewID    string    `json:"interviewId"`
	FinalScore     float64   `json:"finalScore"`
	QuestionCount  int       `json:"questionCount"`
	Recommendation string    `json:"recommendation,omitempty"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Ports

// ChatStream yields the text fragments of one streamed completion.
// Callers must Close it.
type ChatStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// LLMClient opens streamed chat completions for a single user prompt.
type LLMClient interface {
	StreamChat(ctx Context, prompt string) (ChatStream, error)
}

// CandidateRepository persists candidate records.
type CandidateRepository interface {
	Create(ctx Context, c Candidate) (string, error)
	FindByID(ctx Context, id string) (Candidate, error)
	// Save inserts c, or updates only the profile fields of an existing record.
	Save(ctx Context, c Candidate) error
	// AppendInterview adds r to the history and overwrites the latest view
	// in one transaction. Unknown ids yield ErrNotFound.
	AppendInterview(ctx Context, candidateID string, r InterviewResult) error
	// List returns every candidate ordered by final score, highest first,
	// candidates without a score last.
	List(ctx Context) ([]Candidate, error)
}

// TextExtractor (port)
// ExtractPath extracts text from a file at path with provided original filename.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// InterviewEventPublisher announces completed interviews.
type InterviewEventPublisher interface {
	PublishInterviewCompleted(ctx Context, ev InterviewCompletedEvent) error
}

// Context aliases context.Context so ports read uniformly.
type Context = context.Context
