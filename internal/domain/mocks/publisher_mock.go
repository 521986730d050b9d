package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// InterviewEventPublisher is a mock of domain.InterviewEventPublisher.
type InterviewEventPublisher struct {
	mock.Mock
}

// PublishInterviewCompleted provides a mock function.
func (m *InterviewEventPublisher) PublishInterviewCompleted(ctx domain.Context, ev domain.InterviewCompletedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// NewInterviewEventPublisher creates a mock and asserts its expectations on cleanup.
func NewInterviewEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *InterviewEventPublisher {
	m := &InterviewEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// TextExtractor is a mock of domain.TextExtractor.
type TextExtractor struct {
	mock.Mock
}

// ExtractPath provides a mock function.
func (m *TextExtractor) ExtractPath(ctx domain.Context, fileName, path string) (string, error) {
	ret := m.Called(ctx, fileName, path)
	return ret.String(0), ret.Error(1)
}

// NewTextExtractor creates a mock and asserts its expectations on cleanup.
func NewTextExtractor(t interface {
	mock.TestingT
	Cleanup(func())
}) *TextExtractor {
	m := &TextExtractor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
