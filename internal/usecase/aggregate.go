package usecase

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
)

// AggregateAssessor synthesizes cross-question themes and a recommendation.
type AggregateAssessor struct {
	LLM     domain.LLMClient
	Prompts *prompts.Catalog
}

// NewAggregateAssessor constructs an AggregateAssessor.
func NewAggregateAssessor(llm domain.LLMClient, catalog *prompts.Catalog) AggregateAssessor {
	return AggregateAssessor{LLM: llm, Prompts: catalog}
}

// Synthesize builds the overall assessment for a scored interview.
func (a AggregateAssessor) Synthesize(ctx context.Context, as []domain.AnswerAssessment) (domain.AggregateAssessment, error) {
	if len(as) == 0 {
		return domain.AggregateAssessment{}, fmt.Errorf("op=usecase.Synthesize: %w: no assessments", domain.ErrInvalidArgument)
	}
	items := make([]prompts.OverallItem, len(as))
	for i, x := range as {
		items[i] = prompts.OverallItem{
			Number:     i + 1,
			Level:      string(x.Level),
			Question:   x.Question,
			Answer:     x.Answer,
			Score:      x.Score,
			Feedback:   x.Feedback,
			Strengths:  x.Strengths,
			Weaknesses: x.Weaknesses,
		}
	}
	prompt, err := a.Prompts.OverallAssessment(prompts.OverallData{
		Count:      len(as),
		TotalScore: domain.TotalScore(as),
		MaxScore:   domain.MaxAnswerScore * float64(len(as)),
		FinalScore: domain.RawFinalScore(as),
		Items:      items,
	})
	if err != nil {
		return domain.AggregateAssessment{}, fmt.Errorf("op=usecase.Synthesize: %w: %w", domain.ErrInternal, err)
	}
	v, err := completeJSON(ctx, a.LLM, prompt)
	if err != nil {
		return domain.AggregateAssessment{}, fmt.Errorf("op=usecase.Synthesize: %w", err)
	}
	agg, err := NormalizeAggregate(v)
	if err != nil {
		return domain.AggregateAssessment{}, fmt.Errorf("op=usecase.Synthesize: %w", err)
	}
	return agg, nil
}
