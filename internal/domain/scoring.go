package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	// MaxAnswerScore is the top of the per-answer scale.
	MaxAnswerScore = 5.0
	// MaxPossibleScore is the top of the normalized interview scale.
	MaxPossibleScore = 50.0

	// FailedAssessmentFeedback marks an answer whose scoring call failed.
	FailedAssessmentFeedback = "Error assessing this answer"
)

// Validation messages for interview submissions.
const (
	MsgSubmissionRequired = "questionsAndAnswers array is required with at least one question-answer pair"
	MsgSubmissionFields   = "Each item in questionsAndAnswers must have: question, answer, and level"
	MsgSubmissionLevel    = "Level must be 'Easy', 'Medium', or 'Hard'"
)

// RoundTo1 rounds half away from zero to one decimal place.
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ClampScore bounds v to [0, MaxAnswerScore] and rounds to one decimal.
// NaN becomes 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return RoundTo1(math.Max(0, math.Min(MaxAnswerScore, v)))
}

// TotalScore sums the per-answer scores.
func TotalScore(as []AnswerAssessment) float64 {
	var total float64
	for _, a := range as {
		total += a.Score
	}
	return total
}

// RawFinalScore is the unrounded normalized score, used for prompt display.
func RawFinalScore(as []AnswerAssessment) float64 {
	if len(as) == 0 {
		return 0
	}
	return TotalScore(as) / (MaxAnswerScore * float64(len(as))) * MaxPossibleScore
}

// FinalScore is round(sum(score)/(5N)*50, 1). Zero answers score zero.
func FinalScore(as []AnswerAssessment) float64 {
	return RoundTo1(RawFinalScore(as))
}

// FailedAssessment is the placeholder recorded for an answer that could not be scored.
func FailedAssessment(sub AnswerSubmission) AnswerAssessment {
	return AnswerAssessment{
		Question:   sub.Question,
		Answer:     sub.Answer,
		Level:      sub.Level,
		Score:      0,
		Feedback:   FailedAssessmentFeedback,
		Strengths:  []string{},
		Weaknesses: []string{},
	}
}

// Summary renders the one-line interview summary stored with a result.
func Summary(questionCount int, finalScore float64, agg *AggregateAssessment) string {
	s := fmt.Sprintf("Completed %d questions with a final score of %s/50.", questionCount, formatScore(finalScore))
	if agg != nil && strings.TrimSpace(agg.Recommendation) != "" {
		s += " " + strings.TrimSpace(agg.Recommendation)
	}
	return s
}

func formatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// ValidateSubmission rejects an empty list, items with an empty field and
// unknown levels. A whitespace-only answer is still an answer and gets scored.
func ValidateSubmission(items []AnswerSubmission) error {
	if len(items) == 0 {
		return NewValidationError(MsgSubmissionRequired)
	}
	for _, it := range items {
		if it.Question == "" || it.Answer == "" || it.Level == "" {
			return NewValidationError(MsgSubmissionFields)
		}
		if !it.Level.Valid() {
			return NewValidationError(MsgSubmissionLevel)
		}
	}
	return nil
}
