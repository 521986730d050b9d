package usecase

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
)

// AnswerAssessor scores one answer on the 0-5 scale.
type AnswerAssessor struct {
	LLM     domain.LLMClient
	Prompts *prompts.Catalog
}

// NewAnswerAssessor constructs an AnswerAssessor.
func NewAnswerAssessor(llm domain.LLMClient, catalog *prompts.Catalog) AnswerAssessor {
	return AnswerAssessor{LLM: llm, Prompts: catalog}
}

// Assess scores sub. The question, answer and level are not echoed back.
func (a AnswerAssessor) Assess(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerScore, error) {
	prompt, err := a.Prompts.AssessAnswer(prompts.AnswerData{
		Question: sub.Question,
		Answer:   sub.Answer,
		Level:    string(sub.Level),
	})
	if err != nil {
		return domain.AnswerScore{}, fmt.Errorf("op=usecase.AssessAnswer: %w: %w", domain.ErrInternal, err)
	}
	v, err := completeJSON(ctx, a.LLM, prompt)
	if err != nil {
		return domain.AnswerScore{}, fmt.Errorf("op=usecase.AssessAnswer: %w", err)
	}
	score, err := NormalizeAnswerScore(v)
	if err != nil {
		return domain.AnswerScore{}, fmt.Errorf("op=usecase.AssessAnswer: %w", err)
	}
	return score, nil
}
