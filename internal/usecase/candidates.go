package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// CandidateService creates candidate profiles and serves the interviewer views.
type CandidateService struct {
	Repo domain.CandidateRepository
}

// NewCandidateService constructs a CandidateService.
func NewCandidateService(repo domain.CandidateRepository) CandidateService {
	return CandidateService{Repo: repo}
}

// NewCandidate describes a profile to create.
type NewCandidate struct {
	Name  string
	Email string
	Phone string
}

func (in NewCandidate) normalized() (NewCandidate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, domain.NewValidationError("name is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return in, domain.NewValidationError("email is invalid")
		}
	}
	return in, nil
}

// Create stores a new profile with an empty interview history.
func (s CandidateService) Create(ctx context.Context, in NewCandidate) (string, error) {
	if s.Repo == nil {
		return "", fmt.Errorf("op=usecase.CreateCandidate: %w: candidate storage disabled", domain.ErrInternal)
	}
	in, err := in.normalized()
	if err != nil {
		return "", err
	}
	id, err := s.Repo.Create(ctx, domain.Candidate{
		Name:               in.Name,
		Email:              in.Email,
		Phone:              in.Phone,
		CreatedAt:          time.Now().UTC(),
		PreviousInterviews: []domain.InterviewResult{},
	})
	if err != nil {
		return "", fmt.Errorf("op=usecase.CreateCandidate: %w", err)
	}
	return id, nil
}

// Get returns one candidate with full history.
func (s CandidateService) Get(ctx context.Context, id string) (domain.Candidate, error) {
	if s.Repo == nil {
		return domain.Candidate{}, fmt.Errorf("op=usecase.GetCandidate: %w", domain.ErrNotFound)
	}
	if strings.TrimSpace(id) == "" {
		return domain.Candidate{}, domain.NewValidationError("candidate id is required")
	}
	c, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=usecase.GetCandidate: %w", err)
	}
	return c, nil
}

// UpdateProfile replaces the contact fields of an existing candidate. Interview
// history and the latest view are carried over untouched.
func (s CandidateService) UpdateProfile(ctx context.Context, id string, in NewCandidate) (domain.Candidate, error) {
	if s.Repo == nil {
		return domain.Candidate{}, fmt.Errorf("op=usecase.UpdateCandidate: %w", domain.ErrNotFound)
	}
	in, err := in.normalized()
	if err != nil {
		return domain.Candidate{}, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return domain.Candidate{}, err
	}
	c.Name, c.Email, c.Phone = in.Name, in.Email, in.Phone
	if err := s.Repo.Save(ctx, c); err != nil {
		return domain.Candidate{}, fmt.Errorf("op=usecase.UpdateCandidate: %w", err)
	}
	return c, nil
}

// Leaderboard lists every candidate, highest final score first.
func (s CandidateService) Leaderboard(ctx context.Context) ([]domain.Candidate, error) {
	if s.Repo == nil {
		return []domain.Candidate{}, nil
	}
	cs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=usecase.Leaderboard: %w", err)
	}
	if cs == nil {
		cs = []domain.Candidate{}
	}
	return cs, nil
}
