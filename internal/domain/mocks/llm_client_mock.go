package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// LLMClient is a mock of domain.LLMClient.
type LLMClient struct {
	mock.Mock
}

// StreamChat provides a mock function.
func (m *LLMClient) StreamChat(ctx domain.Context, prompt string) (domain.ChatStream, error) {
	ret := m.Called(ctx, prompt)
	s, _ := ret.Get(0).(domain.ChatStream)
	return s, ret.Error(1)
}

// NewLLMClient creates a mock and asserts its expectations on cleanup.
func NewLLMClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *LLMClient {
	m := &LLMClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
