// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	obsmetrics "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/observability"
)

// AnswerScorer scores a single answer.
type AnswerScorer interface {
	Assess(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerScore, error)
}

// InterviewSynthesizer produces the overall assessment of a scored interview.
type InterviewSynthesizer interface {
	Synthesize(ctx context.Context, as []domain.AnswerAssessment) (domain.AggregateAssessment, error)
}

const defaultPersistTimeout = 10 * time.Second

// InterviewReport is what a submission returns to the client.
type InterviewReport struct {
	InterviewID      string
	Assessments      []domain.AnswerAssessment
	FinalScore       float64
	MaxPossibleScore float64
	Overall          *domain.AggregateAssessment
	Persisted        bool
}

// InterviewService runs a submitted interview through scoring, synthesis and
// persistence. Only validation failures abort a submission; every later stage
// degrades instead of failing.
type InterviewService struct {
	Scorer      AnswerScorer
	Synthesizer InterviewSynthesizer
	// Candidates and Events are optional.
	Candidates domain.CandidateRepository
	Events     domain.InterviewEventPublisher

	Concurrency       int
	SubmissionTimeout time.Duration
	PersistTimeout    time.Duration

	Now   func() time.Time
	NewID func() string
}

// NewInterviewService constructs an InterviewService scoring answers one at a time.
func NewInterviewService(scorer AnswerScorer, synth InterviewSynthesizer, candidates domain.CandidateRepository, events domain.InterviewEventPublisher) InterviewService {
	return InterviewService{
		Scorer:      scorer,
		Synthesizer: synth,
		Candidates:  candidates,
		Events:      events,
		Concurrency: 1,
	}
}

// Submit scores every answer in input order, attempts the overall assessment,
// records the result against candidateID when one is given and returns the report.
func (s InterviewService) Submit(ctx context.Context, candidateID string, items []domain.AnswerSubmission) (InterviewReport, error) {
	if err := domain.ValidateSubmission(items); err != nil {
		return InterviewReport{}, err
	}
	if s.Scorer == nil {
		return InterviewReport{}, fmt.Errorf("op=usecase.Submit: %w: no scorer configured", domain.ErrInternal)
	}

	stageCtx := ctx
	if s.SubmissionTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, s.SubmissionTimeout)
		defer cancel()
	}
	lg := observability.LoggerFromContext(ctx)

	assessments := s.scoreAll(stageCtx, items)

	var overall *domain.AggregateAssessment
	if s.Synthesizer != nil {
		aggCtx, end := obsmetrics.StartStage(stageCtx, obsmetrics.StageAggregate)
		agg, err := s.Synthesizer.Synthesize(aggCtx, assessments)
		end(err)
		if err != nil {
			obsmetrics.StageFailed(obsmetrics.StageAggregate)
			lg.Warn("overall assessment unavailable", slog.Any("error", err))
		} else {
			overall = &agg
		}
	}

	result := domain.NewInterviewResult(s.newID(), s.now(), assessments, overall)
	obsmetrics.ObserveFinalScore(result.FinalScore)

	report := InterviewReport{
		InterviewID:      result.ID,
		Assessments:      assessments,
		FinalScore:       result.FinalScore,
		MaxPossibleScore: domain.MaxPossibleScore,
		Overall:          overall,
	}
	if candidateID != "" && s.Candidates != nil {
		report.Persisted = s.persist(ctx, candidateID, result)
	}
	lg.Info("interview assessed",
		slog.String("interview_id", result.ID),
		slog.Int("answers", len(assessments)),
		slog.Float64("final_score", result.FinalScore),
		slog.Bool("overall", overall != nil),
		slog.Bool("persisted", report.Persisted))
	return report, nil
}

func (s InterviewService) scoreAll(ctx context.Context, items []domain.AnswerSubmission) []domain.AnswerAssessment {
	out := make([]domain.AnswerAssessment, len(items))
	if s.Concurrency <= 1 {
		for i, it := range items {
			out[i] = s.scoreOne(ctx, i, it)
		}
		return out
	}
	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i, it := range items {
		g.Go(func() error {
			out[i] = s.scoreOne(ctx, i, it)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// scoreOne never fails: a scoring error yields the zero-score placeholder.
func (s InterviewService) scoreOne(ctx context.Context, i int, sub domain.AnswerSubmission) domain.AnswerAssessment {
	lg := observability.LoggerFromContext(ctx).With(slog.Int("question_number", i+1))
	ctx, end := obsmetrics.StartStage(ctx, obsmetrics.StageScoring,
		attribute.Int("interview.question_number", i+1), attribute.String("interview.level", string(sub.Level)))
	sc, err := s.Scorer.Assess(ctx, sub)
	end(err)
	if err != nil {
		obsmetrics.StageFailed(obsmetrics.StageScoring)
		lg.Warn("answer assessment failed", slog.Any("error", err))
		fa := domain.FailedAssessment(sub)
		fa.Timestamp = s.now()
		return fa
	}
	if sc.Flagged {
		obsmetrics.StageFailed(obsmetrics.StageScoreFormat)
		lg.Warn("answer score was not numeric; recorded as 0")
	}
	obsmetrics.ObserveAnswerScore(sc.Score)
	return domain.AnswerAssessment{
		Question:     sub.Question,
		Answer:       sub.Answer,
		Level:        sub.Level,
		Score:        sc.Score,
		Feedback:     sc.Feedback,
		Strengths:    nonNil(sc.Strengths),
		Weaknesses:   nonNil(sc.Weaknesses),
		ScoreFlagged: sc.Flagged,
		Timestamp:    s.now(),
	}
}

// persist records the result and announces it. Failures are logged, never returned.
func (s InterviewService) persist(ctx context.Context, candidateID string, r domain.InterviewResult) bool {
	timeout := s.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	// The response is already decided; a client disconnect must not drop the write.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	lg := observability.LoggerFromContext(ctx).With(slog.String("candidate_id", candidateID), slog.String("interview_id", r.ID))

	sctx, end := obsmetrics.StartStage(pctx, obsmetrics.StagePersistence)
	err := s.Candidates.AppendInterview(sctx, candidateID, r)
	end(err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			lg.Info("candidate not found; interview not recorded")
			return false
		}
		obsmetrics.StageFailed(obsmetrics.StagePersistence)
		lg.Error("failed to record interview", slog.Any("error", err))
		return false
	}

	if s.Events != nil {
		ev := domain.InterviewCompletedEvent{
			CandidateID:    candidateID,
			InterviewID:    r.ID,
			FinalScore:     r.FinalScore,
			QuestionCount:  len(r.Answers),
			Recommendation: r.Recommendation,
			CompletedAt:    r.InterviewDate,
		}
		if err := s.Events.PublishInterviewCompleted(pctx, ev); err != nil {
			obsmetrics.StageFailed(obsmetrics.StagePublish)
			lg.Warn("failed to publish interview completed event", slog.Any("error", err))
		}
	}
	return true
}

func (s InterviewService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s InterviewService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
