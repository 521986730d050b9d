package llmjson

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FencingVariants(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
	}{
		{"json fence", "```json\n[1,2]\n```"},
		{"bare", "[1,2]"},
		{"prose around fence", "noise ```json\n[1,2]\n``` more noise"},
		{"upper case tag", "```JSON\n[1,2]\n```"},
		{"generic fence", "```\n[1,2]\n```"},
		{"generic fence with tag", "here:\n```javascript\n[1,2]\n```"},
		{"unclosed json fence", "```json\n[1,2]"},
		{"surrounding whitespace", "\n\n  [1,2]  \n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, []any{1.0, 2.0}, v)
		})
	}
}

func TestParse_NonASCIIProseBeforeFence(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want any
	}{
		{"shrinking lowercase runes", strings.Repeat("Ⱥ", 40) + " ```json\n[1]\n```", []any{1.0}},
		{"dotted capital I", "İstanbul review. ```json\n{\"score\": 4}\n```", map[string]any{"score": 4.0}},
		{"kelvin sign", "\u212A\u212A\u212A\u212A ```json\n{\"a\":1}\n```", map[string]any{"a": 1.0}},
		{"upper case tag after unicode", "Résumé ✓ ```JSON\n[true]\n```", []any{true}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestIndexFoldASCII(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, indexFoldASCII("```Json x", jsonFence))
	assert.Equal(t, 3, indexFoldASCII("İ ```json", jsonFence))
	assert.Equal(t, -1, indexFoldASCII("```jſon", jsonFence))
	assert.Equal(t, -1, indexFoldASCII("``", jsonFence))
}

func TestParse_OnlyFirstFenceUsed(t *testing.T) {
	t.Parallel()
	v, err := Parse("```json\n{\"a\":1}\n```\n\n```json\n{\"b\":2}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)
}

func TestParse_JSONFencePreferredOverGeneric(t *testing.T) {
	t.Parallel()
	v, err := Parse("```\nnot json\n```\n```json\n[3]\n```")
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, v)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"prose", "I cannot answer that."},
		{"truncated", "```json\n{\"score\": 4, \"feedback\": \"go"},
		{"empty fence", "```json\n```"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.in)
			require.Error(t, err)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	t.Parallel()
	_, err := Parse("{oops")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "invalid json", pe.Reason)
	assert.NotNil(t, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "llmjson: invalid json")
}

func TestExtract_KeepsFirstLineWhenItIsJSON(t *testing.T) {
	t.Parallel()
	got, err := Extract("```\n{\"a\": 1}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestSnippet_Truncates(t *testing.T) {
	t.Parallel()
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'x'
	}
	s := snippet(string(long))
	assert.Len(t, []rune(s), 123)
}
