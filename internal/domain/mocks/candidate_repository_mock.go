// Package mocks contains testify mocks for the domain ports.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// CandidateRepository is a mock of domain.CandidateRepository.
type CandidateRepository struct {
	mock.Mock
}

// Create provides a mock function.
func (m *CandidateRepository) Create(ctx domain.Context, c domain.Candidate) (string, error) {
	ret := m.Called(ctx, c)
	return ret.String(0), ret.Error(1)
}

// FindByID provides a mock function.
func (m *CandidateRepository) FindByID(ctx domain.Context, id string) (domain.Candidate, error) {
	ret := m.Called(ctx, id)
	c, _ := ret.Get(0).(domain.Candidate)
	return c, ret.Error(1)
}

// Save provides a mock function.
func (m *CandidateRepository) Save(ctx domain.Context, c domain.Candidate) error {
	return m.Called(ctx, c).Error(0)
}

// AppendInterview provides a mock function.
func (m *CandidateRepository) AppendInterview(ctx domain.Context, candidateID string, r domain.InterviewResult) error {
	return m.Called(ctx, candidateID, r).Error(0)
}

// List provides a mock function.
func (m *CandidateRepository) List(ctx domain.Context) ([]domain.Candidate, error) {
	ret := m.Called(ctx)
	cs, _ := ret.Get(0).([]domain.Candidate)
	return cs, ret.Error(1)
}

// NewCandidateRepository creates a mock and asserts its expectations on cleanup.
func NewCandidateRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *CandidateRepository {
	m := &CandidateRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
