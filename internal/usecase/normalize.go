package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// NormalizeQuestions converts parsed model output into questions.
//
// A bare array or an object with a "questions" array is accepted. Items with
// an unknown level or an empty question are dropped; a missing or
// non-positive time falls back to the level default. When want > 0, surplus
// questions are cut and a shortfall is ErrSchemaInvalid.
func NormalizeQuestions(v any, want int) ([]domain.Question, error) {
	items, ok := v.([]any)
	if !ok {
		if obj, isObj := v.(map[string]any); isObj {
			items, ok = obj["questions"].([]any)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array of questions, got %s", domain.ErrSchemaInvalid, kindOf(v))
	}

	out := make([]domain.Question, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		level, err := domain.ParseLevel(asString(obj["level"]))
		if err != nil {
			continue
		}
		text := asString(obj["question"])
		if text == "" {
			continue
		}
		secs := level.DefaultTime()
		if n, ok := asNumber(obj["time"]); ok && n >= 1 {
			secs = int(math.Round(n))
		}
		out = append(out, domain.Question{Level: level, Question: text, Time: secs})
	}

	if want > 0 {
		if len(out) < want {
			return nil, fmt.Errorf("%w: got %d usable questions, want %d", domain.ErrSchemaInvalid, len(out), want)
		}
		out = out[:want]
	}
	return out, nil
}

// NormalizeAnswerScore converts parsed model output into an answer score.
//
// The score accepts a number or numeric string, clamped to [0,5] and rounded
// to one decimal. Anything else scores 0 and is flagged.
func NormalizeAnswerScore(v any) (domain.AnswerScore, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return domain.AnswerScore{}, fmt.Errorf("%w: expected a JSON object, got %s", domain.ErrSchemaInvalid, kindOf(v))
	}
	s := domain.AnswerScore{
		Feedback:   asString(obj["feedback"]),
		Strengths:  asStringSlice(obj["strengths"]),
		Weaknesses: asStringSlice(obj["weaknesses"]),
	}
	if n, ok := asNumber(obj["score"]); ok {
		s.Score = domain.ClampScore(n)
	} else {
		s.Flagged = true
	}
	return s, nil
}

// NormalizeAggregate converts parsed model output into an aggregate assessment.
// Missing fields default to empty values.
func NormalizeAggregate(v any) (domain.AggregateAssessment, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return domain.AggregateAssessment{}, fmt.Errorf("%w: expected a JSON object, got %s", domain.ErrSchemaInvalid, kindOf(v))
	}
	return domain.AggregateAssessment{
		OverallFeedback:   asString(obj["overallFeedback"]),
		OverallStrengths:  asStringSlice(obj["overallStrengths"]),
		OverallWeaknesses: asStringSlice(obj["overallWeaknesses"]),
		Recommendation:    asString(obj["recommendation"]),
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asStringSlice keeps the non-empty string elements of an array; anything
// else yields an empty, non-nil slice.
func asStringSlice(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range arr {
		if s := asString(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
