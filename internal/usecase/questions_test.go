package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	domainmocks "github.com/fairyhunter13/ai-interview-assistant/internal/domain/mocks"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
	"github.com/fairyhunter13/ai-interview-assistant/internal/usecase"
)

const fiveQuestions = "Here you go:\n```json\n[" +
	`{"level":"Easy","question":"What is a goroutine?","time":20},` +
	`{"level":"Easy","question":"What does defer do?","time":25},` +
	`{"level":"Medium","question":"How do you bound concurrency?","time":60},` +
	`{"level":"Medium","question":"How does database/sql pool connections?","time":75},` +
	`{"level":"Hard","question":"Design an idempotent payment API.","time":150}` +
	"]\n```"

func TestCheckGenerationInput(t *testing.T) {
	t.Parallel()
	longResume := strings.Repeat("r", usecase.MinResumeChars)
	tests := []struct {
		name           string
		resume, skills string
		ok             bool
	}{
		{"nothing", "", "", false},
		{"short both", strings.Repeat("r", 49), "go", false},
		{"whitespace padded skills", "", "  go  ", false},
		{"skills", "", "Go, SQL", true},
		{"resume", longResume, "", true},
		{"padded resume", "   " + strings.Repeat("r", 49) + "   ", "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := usecase.CheckGenerationInput(tt.resume, tt.skills)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, usecase.MsgGenerationInput, err.Error())
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
		})
	}
}

func TestQuestionService_Generate(t *testing.T) {
	t.Parallel()
	llm := &scriptedLLM{replies: []reply{{body: fiveQuestions}}}
	svc := usecase.NewQuestionService(llm, prompts.MustLoad(), 5, 2, time.Minute)

	qs, err := svc.Generate(context.Background(), "", "Go, PostgreSQL")
	require.NoError(t, err)
	require.Len(t, qs, 5)
	assert.Equal(t, domain.LevelEasy, qs[0].Level)
	assert.Equal(t, 150, qs[4].Time)
	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], "SKILLS/TECHNOLOGIES:\nGo, PostgreSQL")
}

func TestQuestionService_RetriesMalformedOutput(t *testing.T) {
	t.Parallel()
	llm := &scriptedLLM{replies: []reply{
		{body: `[{"level":"Easy","question":"only one","time":20}]`},
		{body: fiveQuestions},
	}}
	svc := usecase.NewQuestionService(llm, prompts.MustLoad(), 5, 2, time.Minute)

	qs, err := svc.Generate(context.Background(), "", "Go")
	require.NoError(t, err)
	assert.Len(t, qs, 5)
	assert.Equal(t, 2, llm.calls())
}

func TestQuestionService_GivesUpAfterAttempts(t *testing.T) {
	t.Parallel()
	llm := &scriptedLLM{replies: []reply{{body: "sorry"}, {body: ""}}}
	svc := usecase.NewQuestionService(llm, prompts.MustLoad(), 5, 2, time.Minute)

	_, err := svc.Generate(context.Background(), "", "Go")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
	assert.Contains(t, err.Error(), "op=usecase.GenerateQuestions")
	assert.Equal(t, 2, llm.calls())
}

func TestQuestionService_TransportErrorNotRetried(t *testing.T) {
	t.Parallel()
	llm := domainmocks.NewLLMClient(t)
	llm.On("StreamChat", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, domain.ErrUpstreamRateLimit).Once()
	svc := usecase.NewQuestionService(llm, prompts.MustLoad(), 5, 3, time.Minute)

	_, err := svc.Generate(context.Background(), "", "Go")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamRateLimit))
}

func TestQuestionService_InvalidInputSkipsLLM(t *testing.T) {
	t.Parallel()
	llm := domainmocks.NewLLMClient(t)
	svc := usecase.NewQuestionService(llm, prompts.MustLoad(), 5, 2, time.Minute)

	_, err := svc.Generate(context.Background(), "short", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	llm.AssertNotCalled(t, "StreamChat", mock.Anything, mock.Anything)
}
