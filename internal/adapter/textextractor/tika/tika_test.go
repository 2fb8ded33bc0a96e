package tika

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestExtractPath_PlainText(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("Jordan Smith\njordan@x.dev\x00\n7 years of React"))
	}))
	defer srv.Close()

	path := writeTemp(t, "resume.txt", []byte("Jordan Smith resume body"))
	c := New(srv.URL)

	text, err := c.ExtractPath(context.Background(), "resume.txt", path)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Smith\njordan@x.dev\n7 years of React", text)
}

func TestExtractPath_PDFHeaderSniffed(t *testing.T) {
	t.Parallel()
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte("extracted"))
	}))
	defer srv.Close()

	path := writeTemp(t, "resume.pdf", []byte("%PDF-1.4 fake body"))
	c := New(srv.URL)

	_, err := c.ExtractPath(context.Background(), "resume.pdf", path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", gotContentType)
}

func TestExtractPath_UnsupportedType(t *testing.T) {
	t.Parallel()
	c := New("http://unused")
	path := writeTemp(t, "resume.png", []byte("\x89PNG\r\n\x1a\n000000"))

	_, err := c.ExtractPath(context.Background(), "resume.png", path)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtractPath_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	path := writeTemp(t, "resume.txt", []byte("text"))
	c := New(srv.URL)

	_, err := c.ExtractPath(context.Background(), "resume.txt", path)
	assert.Error(t, err)
}

func TestExtractPath_DisallowedPath(t *testing.T) {
	t.Parallel()
	c := New("http://unused")
	_, err := c.ExtractPath(context.Background(), "passwd", "/etc/passwd")
	assert.Error(t, err)
}

func TestContentTypeFromExt(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "application/pdf", contentTypeFromExt(".pdf"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", contentTypeFromExt(".DOCX"))
	assert.Equal(t, "application/msword", contentTypeFromExt(".doc"))
	assert.Empty(t, contentTypeFromExt(""))
}
