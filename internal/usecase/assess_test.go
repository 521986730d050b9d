package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
	"github.com/fairyhunter13/ai-interview-assistant/internal/usecase"
)

func TestAnswerAssessor_ClampsAndDefaults(t *testing.T) {
	t.Parallel()
	llm := &scriptedLLM{replies: []reply{{body: "```json\n{\"score\": 7, \"feedback\": \"Excellent.\", \"strengths\": [\"precise\"]}\n```"}}}
	a := usecase.NewAnswerAssessor(llm, prompts.MustLoad())

	sc, err := a.Assess(context.Background(), domain.AnswerSubmission{Question: "What is a channel?", Answer: "A typed conduit.", Level: domain.LevelEasy})
	require.NoError(t, err)
	assert.Equal(t, 5.0, sc.Score)
	assert.Equal(t, "Excellent.", sc.Feedback)
	assert.Equal(t, []string{"precise"}, sc.Strengths)
	assert.Equal(t, []string{}, sc.Weaknesses)
	assert.Contains(t, llm.prompts[0], "QUESTION (Easy level):\nWhat is a channel?")
}

func TestAnswerAssessor_Failures(t *testing.T) {
	t.Parallel()
	sub := domain.AnswerSubmission{Question: "q", Answer: "a", Level: domain.LevelHard}

	bad := usecase.NewAnswerAssessor(&scriptedLLM{replies: []reply{{body: "I think it deserves a 4."}}}, prompts.MustLoad())
	_, err := bad.Assess(context.Background(), sub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))

	down := usecase.NewAnswerAssessor(&scriptedLLM{replies: []reply{{err: domain.ErrUpstreamTimeout}}}, prompts.MustLoad())
	_, err = down.Assess(context.Background(), sub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamTimeout))
}
