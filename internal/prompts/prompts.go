// Package prompts renders the LLM prompts from an embedded YAML catalog.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Catalog keys.
const (
	KeyGenerateQuestions = "generate_questions"
	KeyAssessAnswer      = "assess_answer"
	KeyOverallAssessment = "overall_assessment"
)

//go:embed templates.yaml
var defaultCatalog []byte

var requiredKeys = []string{KeyGenerateQuestions, KeyAssessAnswer, KeyOverallAssessment}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// QuestionsData feeds generate_questions. Empty fields are omitted from the prompt.
type QuestionsData struct {
	Resume string
	Skills string
	Count  int
}

// AnswerData feeds assess_answer.
type AnswerData struct {
	Question string
	Answer   string
	Level    string
}

// OverallItem is one scored answer listed in overall_assessment.
type OverallItem struct {
	Number     int
	Level      string
	Question   string
	Answer     string
	Score      float64
	Feedback   string
	Strengths  []string
	Weaknesses []string
}

// OverallData feeds overall_assessment.
type OverallData struct {
	Count      int
	TotalScore float64
	MaxScore   float64
	FinalScore float64
	Items      []OverallItem
}

// Catalog holds parsed prompt templates. Safe for concurrent use.
type Catalog struct {
	tmpls map[string]*template.Template
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustLoad is Load for package-level initialization; it panics on a broken catalog.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML mapping keys to template text.
func Parse(doc []byte) (*Catalog, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("op=prompts.Parse: %w", err)
	}
	c := &Catalog{tmpls: make(map[string]*template.Template, len(raw))}
	for _, k := range requiredKeys {
		text, ok := raw[k]
		if !ok || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("op=prompts.Parse: missing template %q", k)
		}
	}
	for k, text := range raw {
		t, err := template.New(k).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("op=prompts.Parse: template %q: %w", k, err)
		}
		c.tmpls[k] = t
	}
	return c, nil
}

// Render executes the template stored under key.
func (c *Catalog) Render(key string, data any) (string, error) {
	t, ok := c.tmpls[key]
	if !ok {
		return "", fmt.Errorf("op=prompts.Render: unknown template %q", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("op=prompts.Render: %s: %w", key, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// GenerateQuestions renders the question generation prompt.
func (c *Catalog) GenerateQuestions(d QuestionsData) (string, error) {
	d.Resume = strings.TrimSpace(d.Resume)
	d.Skills = strings.TrimSpace(d.Skills)
	return c.Render(KeyGenerateQuestions, d)
}

// AssessAnswer renders the single answer scoring prompt.
func (c *Catalog) AssessAnswer(d AnswerData) (string, error) {
	return c.Render(KeyAssessAnswer, d)
}

// OverallAssessment renders the cross-question synthesis prompt.
func (c *Catalog) OverallAssessment(d OverallData) (string, error) {
	return c.Render(KeyOverallAssessment, d)
}
