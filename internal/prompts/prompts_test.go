package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	t.Parallel()
	c, err := Load()
	require.NoError(t, err)
	for _, k := range requiredKeys {
		assert.Contains(t, c.tmpls, k)
	}
}

func TestGenerateQuestions_OmitsEmptySections(t *testing.T) {
	t.Parallel()
	c := MustLoad()

	p, err := c.GenerateQuestions(QuestionsData{Skills: "  Go, Postgres  ", Count: 5})
	require.NoError(t, err)
	assert.Contains(t, p, "generate exactly 5 TECHNICAL interview questions")
	assert.Contains(t, p, "SKILLS/TECHNOLOGIES:\nGo, Postgres")
	assert.NotContains(t, p, "RESUME/EXPERIENCE")
	assert.Contains(t, p, "Return exactly 5 questions")

	p, err = c.GenerateQuestions(QuestionsData{Resume: "Ten years of backend work.", Count: 3})
	require.NoError(t, err)
	assert.Contains(t, p, "RESUME/EXPERIENCE:\nTen years of backend work.")
	assert.NotContains(t, p, "SKILLS/TECHNOLOGIES")
}

func TestAssessAnswer_IncludesRubricAndLevel(t *testing.T) {
	t.Parallel()
	p, err := MustLoad().AssessAnswer(AnswerData{Question: "What is a mutex?", Answer: "A lock.", Level: "Hard"})
	require.NoError(t, err)
	assert.Contains(t, p, "QUESTION (Hard level):\nWhat is a mutex?")
	assert.Contains(t, p, "CANDIDATE'S ANSWER:\nA lock.")
	assert.Contains(t, p, "For Hard level questions:")
	assert.Contains(t, p, `"score": number (0-5`)
}

func TestOverallAssessment_ListsEveryItem(t *testing.T) {
	t.Parallel()
	p, err := MustLoad().OverallAssessment(OverallData{
		Count:      2,
		TotalScore: 5,
		MaxScore:   10,
		FinalScore: 25,
		Items: []OverallItem{
			{Number: 1, Level: "Easy", Question: "Q1", Answer: "A1", Score: 5, Feedback: "great", Strengths: []string{"s1", "s2"}},
			{Number: 2, Level: "Hard", Question: "Q2", Answer: "A2", Score: 0},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, p, "Total Score: 5.0/10 points")
	assert.Contains(t, p, "Final Score (out of 50): 25.0/50")
	assert.Contains(t, p, "Question 1 (Easy):\nQ1")
	assert.Contains(t, p, "Strengths: s1, s2")
	assert.Contains(t, p, "Question 2 (Hard):\nQ2")
	assert.Contains(t, p, "Feedback: N/A")
	assert.Equal(t, 2, strings.Count(p, "---"))
	assert.Contains(t, p, "List 4-6 key technical strengths")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("generate_questions: hi\nassess_answer: hi\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall_assessment")

	_, err = Parse([]byte("generate_questions: [unclosed"))
	require.Error(t, err)

	_, err = Parse([]byte("generate_questions: '{{.X'\nassess_answer: a\noverall_assessment: b\n"))
	require.Error(t, err)
}

func TestRender_UnknownKeyAndMissingField(t *testing.T) {
	t.Parallel()
	c := MustLoad()
	_, err := c.Render("nope", nil)
	require.Error(t, err)

	_, err = c.Render(KeyAssessAnswer, map[string]string{"Question": "q"})
	require.Error(t, err)
}
