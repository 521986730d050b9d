package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

type sliceStream struct {
	frags  []string
	i      int
	err    error
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.i >= len(s.frags) {
		return false
	}
	s.i++
	return true
}

func (s *sliceStream) Current() string { return s.frags[s.i-1] }
func (s *sliceStream) Err() error      { return s.err }
func (s *sliceStream) Close() error    { s.closed = true; return nil }

type oneShotLLM struct {
	stream *sliceStream
	err    error
}

func (l oneShotLLM) StreamChat(context.Context, string) (domain.ChatStream, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.stream, nil
}

func TestComplete_ConcatenatesAndCloses(t *testing.T) {
	t.Parallel()
	st := &sliceStream{frags: []string{"```js", "on\n{\"a\"", ":1}\n``", "`"}}
	v, err := completeJSON(context.Background(), oneShotLLM{stream: st}, "p")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)
	assert.True(t, st.closed)
}

func TestComplete_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := complete(ctx, oneShotLLM{err: io.ErrUnexpectedEOF}, "p")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	st := &sliceStream{frags: []string{"partial"}, err: errors.New("reset")}
	_, err = complete(ctx, oneShotLLM{stream: st}, "p")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.True(t, st.closed)

	_, err = completeJSON(ctx, oneShotLLM{stream: &sliceStream{frags: []string{"no json here"}}}, "p")
	assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))

	_, err = complete(ctx, nil, "p")
	assert.True(t, errors.Is(err, domain.ErrInternal))
}

func TestClassifyUpstream(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rl := errors.Join(domain.ErrUpstreamRateLimit, errors.New("429"))
	assert.Same(t, rl, classifyUpstream(ctx, rl))
	assert.True(t, errors.Is(classifyUpstream(ctx, context.DeadlineExceeded), domain.ErrUpstreamTimeout))

	expired, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	<-expired.Done()
	assert.True(t, errors.Is(classifyUpstream(expired, errors.New("read tcp: closed")), domain.ErrUpstreamTimeout))
}
