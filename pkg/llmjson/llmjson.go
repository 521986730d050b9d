// Package llmjson extracts and decodes the JSON payload of a free-text LLM response.
//
// Models are asked for JSON only, yet routinely wrap it in a markdown fence or
// surround it with prose. Extract isolates the payload; Parse decodes it.
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/fairyhunter13/ai-interview-assistant/pkg/textx"
)

const (
	fence        = "```"
	jsonFence    = "```json"
	snippetRunes = 120
)

// ParseError reports a response body that did not yield a JSON value.
type ParseError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "llmjson: " + e.Reason + ": " + e.Err.Error()
	}
	return "llmjson: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract returns the JSON candidate substring of body.
//
// The first ```json fence wins; otherwise the first generic fence pair is used;
// otherwise the whole trimmed body. Later fences are ignored.
func Extract(body string) (string, error) {
	s := strings.TrimSpace(body)
	if s == "" {
		return "", &ParseError{Reason: "empty response"}
	}
	if i := indexFoldASCII(s, jsonFence); i >= 0 {
		rest := s[i+len(jsonFence):]
		if j := strings.Index(rest, fence); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest), nil
	}
	if i := strings.Index(s, fence); i >= 0 {
		rest := s[i+len(fence):]
		if j := strings.Index(rest, fence); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(dropLanguageTag(rest)), nil
	}
	return s, nil
}

// indexFoldASCII is strings.Index with ASCII case folding. It compares bytes
// of s directly, so the offset it returns is valid for slicing s.
func indexFoldASCII(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		j := 0
		for j < len(sub) && lowerASCII(s[i+j]) == lowerASCII(sub[j]) {
			j++
		}
		if j == len(sub) {
			return i
		}
	}
	return -1
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// dropLanguageTag removes a bare info string such as "javascript" from the
// first line of a generic fence body.
func dropLanguageTag(s string) string {
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return s
	}
	tag := strings.TrimSpace(s[:nl])
	if tag == "" || strings.ContainsAny(tag, "{}[]\":, ") {
		return s
	}
	return s[nl+1:]
}

// Parse extracts the payload from body and decodes it. Numbers decode as float64.
func Parse(body string) (any, error) {
	payload, err := Extract(body)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return nil, &ParseError{Reason: "empty fenced block"}
	}
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, &ParseError{Reason: "invalid json", Snippet: snippet(payload), Err: err}
	}
	return v, nil
}

func snippet(s string) string {
	return textx.Truncate(s, snippetRunes)
}
