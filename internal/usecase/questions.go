package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
	"github.com/fairyhunter13/ai-interview-assistant/pkg/textx"
)

// Minimum trimmed lengths, in characters, for question generation input.
const (
	MinResumeChars = 50
	MinSkillsChars = 3

	MsgGenerationInput = "Please provide either a resume (min 50 chars) or skills (min 3 chars)"
)

// CheckGenerationInput requires a usable resume or skills list.
func CheckGenerationInput(resume, skills string) error {
	if textx.TrimmedLen(resume) < MinResumeChars && textx.TrimmedLen(skills) < MinSkillsChars {
		return domain.NewValidationError(MsgGenerationInput)
	}
	return nil
}

// QuestionService generates leveled technical questions from a resume and skills.
type QuestionService struct {
	LLM      domain.LLMClient
	Prompts  *prompts.Catalog
	Count    int
	Attempts int
	Timeout  time.Duration
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(llm domain.LLMClient, catalog *prompts.Catalog, count, attempts int, timeout time.Duration) QuestionService {
	return QuestionService{LLM: llm, Prompts: catalog, Count: count, Attempts: attempts, Timeout: timeout}
}

// Generate returns exactly Count questions. Malformed or short model output is
// retried up to Attempts times; transport failures are returned at once.
func (s QuestionService) Generate(ctx context.Context, resume, skills string) ([]domain.Question, error) {
	if err := CheckGenerationInput(resume, skills); err != nil {
		return nil, err
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	prompt, err := s.Prompts.GenerateQuestions(prompts.QuestionsData{Resume: resume, Skills: skills, Count: s.Count})
	if err != nil {
		return nil, fmt.Errorf("op=usecase.GenerateQuestions: %w: %w", domain.ErrInternal, err)
	}

	lg := observability.LoggerFromContext(ctx)
	attempts := max(s.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := completeJSON(ctx, s.LLM, prompt)
		if err == nil {
			var qs []domain.Question
			qs, err = NormalizeQuestions(v, s.Count)
			if err == nil {
				lg.Info("questions generated", slog.Int("count", len(qs)), slog.Int("attempt", attempt))
				return qs, nil
			}
		}
		lastErr = err
		if !errors.Is(err, domain.ErrSchemaInvalid) || ctx.Err() != nil {
			break
		}
		lg.Warn("question generation output rejected", slog.Int("attempt", attempt), slog.Any("error", err))
	}
	return nil, fmt.Errorf("op=usecase.GenerateQuestions: %w", lastErr)
}
