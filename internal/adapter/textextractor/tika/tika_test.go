package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	assert.Equal(t, "http://localhost:9998", c.baseURL)
	assert.Equal(t, "http://tika:9998", New("http://tika:9998/").baseURL)
}

func TestExtractPath_PDFViaServer(t *testing.T) {
	var gotCT, gotAccept string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		gotCT = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, "  Senior Go engineer\n\n  Kafka,\tPostgres  ")
	}))
	defer srv.Close()

	p := writeTemp(t, "cv.pdf", "%PDF-1.4 fake")
	text, err := New(srv.URL).ExtractPath(context.Background(), "cv.pdf", p)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer Kafka, Postgres", text)
	assert.Equal(t, textextractor.MIMEPDF, gotCT)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "%PDF-1.4 fake", string(gotBody))
}

func TestExtractPath_PlainTextIsLocal(t *testing.T) {
	p := writeTemp(t, "cv.txt", "Go\n\nSQL")
	text, err := New("http://127.0.0.1:1").ExtractPath(context.Background(), "cv.txt", p)
	require.NoError(t, err)
	assert.Equal(t, "Go SQL", text)
}

func TestExtractPath_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.ExtractPath(ctx, "image.png", writeTemp(t, "image.png", "x"))
	assert.ErrorIs(t, err, textextractor.ErrUnsupportedType)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = c.ExtractPath(ctx, "cv.pdf", "/etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disallowed path")

	_, err = c.ExtractPath(ctx, "cv.docx", writeTemp(t, "cv.docx", "PK"))
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestExtractPath_UnsupportedMediaFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ExtractPath(context.Background(), "cv.pdf", writeTemp(t, "cv.pdf", "garbage"))
	assert.ErrorIs(t, err, textextractor.ErrUnsupportedType)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/version" {
			_, _ = io.WriteString(w, "Apache Tika 2.9.0")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).Ping(context.Background()))
	require.Error(t, New("http://127.0.0.1:1").Ping(context.Background()))
}
