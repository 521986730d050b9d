package usecase_test

import (
	"context"
	"sync"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// fragStream replays fixed fragments, optionally failing after them.
type fragStream struct {
	frags []string
	i     int
	err   error
}

func stream(frags ...string) *fragStream { return &fragStream{frags: frags} }

func (s *fragStream) Next() bool {
	if s.i >= len(s.frags) {
		return false
	}
	s.i++
	return true
}
func (s *fragStream) Current() string { return s.frags[s.i-1] }
func (s *fragStream) Err() error      { return s.err }
func (s *fragStream) Close() error    { return nil }

// scriptedLLM answers each call with the next scripted reply and records prompts.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	body string
	err  error
}

func (l *scriptedLLM) StreamChat(_ context.Context, prompt string) (domain.ChatStream, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
	if len(l.replies) == 0 {
		return nil, domain.ErrUpstream
	}
	r := l.replies[0]
	l.replies = l.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return stream(r.body), nil
}

func (l *scriptedLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func submissions(n int) []domain.AnswerSubmission {
	levels := []domain.Level{domain.LevelEasy, domain.LevelMedium, domain.LevelHard}
	out := make([]domain.AnswerSubmission, n)
	for i := range out {
		out[i] = domain.AnswerSubmission{
			Question: "question " + string(rune('A'+i)),
			Answer:   "answer " + string(rune('A'+i)),
			Level:    levels[i%3],
		}
	}
	return out
}
