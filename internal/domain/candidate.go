package domain

import "time"

// Candidate is a person being interviewed, with a denormalized view of the
// latest interview and the full history.
//
// After RecordInterview the latest fields equal PreviousInterviews[last].
type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`

	Answers           []AnswerAssessment `json:"answers"`
	FinalScore        *float64           `json:"finalScore"`
	Summary           string             `json:"summary"`
	OverallFeedback   string             `json:"overallFeedback"`
	OverallStrengths  []string           `json:"overallStrengths"`
	OverallWeaknesses []string           `json:"overallWeaknesses"`
	Recommendation    string             `json:"recommendation"`

	PreviousInterviews []InterviewResult `json:"previousInterviews"`
}

// RecordInterview appends r to the history and overwrites the latest view.
func (c *Candidate) RecordInterview(r InterviewResult) {
	c.PreviousInterviews = append(c.PreviousInterviews, r)
	c.applyLatest(r)
}

func (c *Candidate) applyLatest(r InterviewResult) {
	score := r.FinalScore
	c.Answers = r.Answers
	c.FinalScore = &score
	c.Summary = r.Summary
	c.OverallFeedback = r.OverallFeedback
	c.OverallStrengths = r.OverallStrengths
	c.OverallWeaknesses = r.OverallWeaknesses
	c.Recommendation = r.Recommendation
}

// Latest returns the most recent interview, if any.
func (c Candidate) Latest() (InterviewResult, bool) {
	if len(c.PreviousInterviews) == 0 {
		return InterviewResult{}, false
	}
	return c.PreviousInterviews[len(c.PreviousInterviews)-1], true
}

// NewInterviewResult assembles a result from scored answers and an optional aggregate.
func NewInterviewResult(id string, at time.Time, answers []AnswerAssessment, agg *AggregateAssessment) InterviewResult {
	final := FinalScore(answers)
	r := InterviewResult{
		ID:                id,
		InterviewDate:     at,
		Answers:           answers,
		FinalScore:        final,
		OverallStrengths:  []string{},
		OverallWeaknesses: []string{},
		Summary:           Summary(len(answers), final, agg),
	}
	if agg != nil {
		r.OverallFeedback = agg.OverallFeedback
		r.OverallStrengths = agg.OverallStrengths
		r.OverallWeaknesses = agg.OverallWeaknesses
		r.Recommendation = agg.Recommendation
	}
	return r
}
