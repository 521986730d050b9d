// Package stub provides a deterministic offline LLM client used when no API
// key is configured and in tests.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

var (
	countRe  = regexp.MustCompile(`generate exactly (\d+) TECHNICAL`)
	levelRe  = regexp.MustCompile(`QUESTION \((\w+) level\)`)
	answerRe = regexp.MustCompile(`(?s)CANDIDATE'S ANSWER:\n(.*?)\n\nEvaluate the answer`)
	finalRe  = regexp.MustCompile(`Final Score \(out of 50\): ([0-9.]+)/50`)
)

// Client is a fast, deterministic LLM client for local runs and tests.
// It recognises the three prompt kinds and answers with fenced JSON.
type Client struct {
	// ChunkSize controls how the reply is fragmented; zero means 16 bytes.
	ChunkSize int
}

func New() *Client { return &Client{} }

// StreamChat returns a canned reply for the prompt kind.
func (c *Client) StreamChat(ctx context.Context, prompt string) (domain.ChatStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	var payload any
	switch {
	case strings.Contains(prompt, "INTERVIEW SUMMARY:"):
		payload = overall(prompt)
	case strings.Contains(prompt, "CANDIDATE'S ANSWER:"):
		payload = assess(prompt)
	default:
		payload = questions(prompt)
	}
	b, _ := json.MarshalIndent(payload, "", "  ")
	reply := "```json\n" + string(b) + "\n```"
	return NewFragmentStream(Split(reply, c.ChunkSize)...), nil
}

func questions(prompt string) []map[string]any {
	n := 5
	if m := countRe.FindStringSubmatch(prompt); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			n = v
		}
	}
	topics := []string{
		"What is the difference between a process and a thread?",
		"How would you design pagination for a REST API that serves millions of rows?",
		"Explain how database indexes speed up reads and what they cost on writes.",
		"Design a rate limiter shared by several stateless service instances.",
		"How do you detect and fix a memory leak in a long-running service?",
	}
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		lvl := domain.Levels[i%len(domain.Levels)]
		out = append(out, map[string]any{
			"level":    string(lvl),
			"question": topics[i%len(topics)],
			"time":     lvl.DefaultTime(),
		})
	}
	return out
}

func assess(prompt string) map[string]any {
	level := "Medium"
	if m := levelRe.FindStringSubmatch(prompt); m != nil {
		level = m[1]
	}
	answer := ""
	if m := answerRe.FindStringSubmatch(prompt); m != nil {
		answer = m[1]
	}
	words := len(strings.Fields(answer))
	var score float64
	switch {
	case words >= 40:
		score = 4.5
	case words >= 15:
		score = 3.5
	case words >= 5:
		score = 2.5
	default:
		score = 1
	}
	return map[string]any{
		"score":      score,
		"feedback":   fmt.Sprintf("The %s answer covers %d words of material. Add concrete examples to strengthen it.", level, words),
		"strengths":  []string{"Addresses the question directly"},
		"weaknesses": []string{"Could include more practical detail"},
	}
}

func overall(prompt string) map[string]any {
	final := 0.0
	if m := finalRe.FindStringSubmatch(prompt); m != nil {
		final, _ = strconv.ParseFloat(m[1], 64)
	}
	rec := "Good foundation but needs more experience before consideration"
	switch {
	case final >= 40:
		rec = "Strong candidate suitable for mid-level position"
	case final < 20:
		rec = "Not yet ready; significant knowledge gaps"
	}
	return map[string]any{
		"overallFeedback":   fmt.Sprintf("The candidate finished with %.1f/50.", final),
		"overallStrengths":  []string{"Consistent structure in answers", "Familiarity with core concepts"},
		"overallWeaknesses": []string{"Limited depth on system design", "Few concrete examples"},
		"recommendation":    rec,
	}
}

// Split cuts s into byte chunks of size n (16 when n <= 0).
func Split(s string, n int) []string {
	if n <= 0 {
		n = 16
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// FragmentStream is an in-memory domain.ChatStream over fixed fragments.
// A non-nil Fail is reported by Err once all fragments are consumed.
type FragmentStream struct {
	frags  []string
	idx    int
	cur    string
	Fail   error
	Closed bool
}

func NewFragmentStream(frags ...string) *FragmentStream {
	return &FragmentStream{frags: frags}
}

func (s *FragmentStream) Next() bool {
	if s.Closed || s.idx >= len(s.frags) {
		return false
	}
	s.cur = s.frags[s.idx]
	s.idx++
	return true
}

func (s *FragmentStream) Current() string { return s.cur }

func (s *FragmentStream) Err() error {
	if s.idx >= len(s.frags) {
		return s.Fail
	}
	return nil
}

func (s *FragmentStream) Close() error {
	s.Closed = true
	return nil
}
