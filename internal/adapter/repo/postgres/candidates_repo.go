package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool used by the repositories.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// CandidateRepo persists candidates and their interview history.
//
// The latest interview view is stored as JSONB on the candidate row next to
// final_score; history rows live in interviews, ordered by seq.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

var _ domain.CandidateRepository = (*CandidateRepo)(nil)

// latestView is the JSONB shape of candidates.latest.
type latestView struct {
	Answers           []domain.AnswerAssessment `json:"answers"`
	Summary           string                    `json:"summary"`
	OverallFeedback   string                    `json:"overallFeedback"`
	OverallStrengths  []string                  `json:"overallStrengths"`
	OverallWeaknesses []string                  `json:"overallWeaknesses"`
	Recommendation    string                    `json:"recommendation"`
}

func latestOf(c domain.Candidate) latestView {
	return latestView{
		Answers:           c.Answers,
		Summary:           c.Summary,
		OverallFeedback:   c.OverallFeedback,
		OverallStrengths:  c.OverallStrengths,
		OverallWeaknesses: c.OverallWeaknesses,
		Recommendation:    c.Recommendation,
	}
}

func (v latestView) applyTo(c *domain.Candidate) {
	c.Answers = v.Answers
	c.Summary = v.Summary
	c.OverallFeedback = v.OverallFeedback
	c.OverallStrengths = v.OverallStrengths
	c.OverallWeaknesses = v.OverallWeaknesses
	c.Recommendation = v.Recommendation
}

func persistErr(op string, err error) error {
	return fmt.Errorf("op=%s: %w: %w", op, domain.ErrPersistence, err)
}

const candidateColumns = `id, name, email, phone, created_at, final_score, latest`

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	var score *float64
	var latest []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &score, &latest); err != nil {
		return domain.Candidate{}, err
	}
	c.FinalScore = score
	if len(latest) > 0 {
		var v latestView
		if err := json.Unmarshal(latest, &v); err != nil {
			return domain.Candidate{}, fmt.Errorf("decode latest: %w", err)
		}
		v.applyTo(&c)
	}
	c.PreviousInterviews = []domain.InterviewResult{}
	return c, nil
}

// Create inserts a new candidate profile and returns its id.
func (r *CandidateRepo) Create(ctx context.Context, c domain.Candidate) (string, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Create")
	defer span.End()

	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	latest, err := json.Marshal(latestOf(c))
	if err != nil {
		return "", fmt.Errorf("op=candidate.create: %w", err)
	}
	q := `INSERT INTO candidates (id, name, email, phone, created_at, updated_at, final_score, latest) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := r.Pool.Exec(ctx, q, id, c.Name, c.Email, c.Phone, c.CreatedAt, now, c.FinalScore, latest); err != nil {
		return "", persistErr("candidate.create", err)
	}
	return id, nil
}

// FindByID loads a candidate with the full interview history.
func (r *CandidateRepo) FindByID(ctx context.Context, id string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.FindByID")
	defer span.End()

	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE id=$1`
	c, err := scanCandidate(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, fmt.Errorf("op=candidate.find: %w", domain.ErrNotFound)
		}
		return domain.Candidate{}, persistErr("candidate.find", err)
	}
	hist, err := r.history(ctx, `WHERE candidate_id=$1`, id)
	if err != nil {
		return domain.Candidate{}, persistErr("candidate.find", err)
	}
	if h, ok := hist[c.ID]; ok {
		c.PreviousInterviews = h
	}
	return c, nil
}

// history loads interview results grouped by candidate id, oldest first.
func (r *CandidateRepo) history(ctx context.Context, where string, args ...any) (map[string][]domain.InterviewResult, error) {
	q := `SELECT candidate_id, result FROM interviews ` + where + ` ORDER BY candidate_id, seq`
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]domain.InterviewResult{}
	for rows.Next() {
		var cid string
		var raw []byte
		if err := rows.Scan(&cid, &raw); err != nil {
			return nil, err
		}
		var res domain.InterviewResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode interview: %w", err)
		}
		out[cid] = append(out[cid], res)
	}
	return out, rows.Err()
}

// Save inserts a new candidate or updates the profile fields of an existing
// one. On conflict final_score and latest are left alone: they, like the
// history, only change through AppendInterview, so a stale copy cannot undo
// a concurrent append.
func (r *CandidateRepo) Save(ctx context.Context, c domain.Candidate) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Save")
	defer span.End()

	if c.ID == "" {
		return fmt.Errorf("op=candidate.save: %w", domain.NewValidationError("candidate id is required"))
	}
	latest, err := json.Marshal(latestOf(c))
	if err != nil {
		return fmt.Errorf("op=candidate.save: %w", err)
	}
	now := time.Now().UTC()
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	q := `INSERT INTO candidates (id, name, email, phone, created_at, updated_at, final_score, latest)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, phone=EXCLUDED.phone, updated_at=EXCLUDED.updated_at`
	if _, err := r.Pool.Exec(ctx, q, c.ID, c.Name, c.Email, c.Phone, created, now, c.FinalScore, latest); err != nil {
		return persistErr("candidate.save", err)
	}
	return nil
}

// AppendInterview appends res to the candidate's history and overwrites the
// latest view in one transaction. The candidate row is locked for the
// duration so concurrent submissions for one candidate serialize.
func (r *CandidateRepo) AppendInterview(ctx context.Context, candidateID string, res domain.InterviewResult) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.AppendInterview")
	defer span.End()

	const op = "candidate.append_interview"
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("op=%s: %w", op, err)
	}
	var c domain.Candidate
	c.RecordInterview(res)
	latestJSON, err := json.Marshal(latestOf(c))
	if err != nil {
		return fmt.Errorf("op=%s: %w", op, err)
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return persistErr(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM candidates WHERE id=$1 FOR UPDATE`, candidateID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return persistErr(op, err)
	}
	var seq int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM interviews WHERE candidate_id=$1`, candidateID).Scan(&seq); err != nil {
		return persistErr(op, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO interviews (id, candidate_id, seq, interview_date, final_score, result) VALUES ($1,$2,$3,$4,$5,$6)`,
		res.ID, candidateID, seq+1, res.InterviewDate, res.FinalScore, resultJSON); err != nil {
		return persistErr(op, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE candidates SET final_score=$2, latest=$3, updated_at=$4 WHERE id=$1`,
		candidateID, res.FinalScore, latestJSON, time.Now().UTC()); err != nil {
		return persistErr(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return persistErr(op, err)
	}
	committed = true
	return nil
}

// List returns all candidates ordered by final score, highest first, unscored last.
func (r *CandidateRepo) List(ctx context.Context) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.List")
	defer span.End()

	q := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY final_score DESC NULLS LAST, created_at ASC`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, persistErr("candidate.list", err)
	}
	out := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			rows.Close()
			return nil, persistErr("candidate.list", err)
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, persistErr("candidate.list", err)
	}
	if len(out) == 0 {
		return out, nil
	}
	hist, err := r.history(ctx, "")
	if err != nil {
		return nil, persistErr("candidate.list", err)
	}
	for i := range out {
		if h, ok := hist[out[i].ID]; ok {
			out[i].PreviousInterviews = h
		}
	}
	return out, nil
}
