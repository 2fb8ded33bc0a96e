// Package tika provides Apache Tika integration for resume text extraction.
//
// It extracts plain text from uploaded PDF and Word documents via PUT /tika
// with Accept: text/plain. See https://tika.apache.org/server/ for the API.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

// Client implements domain.TextExtractor against a Tika server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// allowedTypes are the resume formats the engine accepts.
var allowedTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
	"text/plain":         true,
}

// ExtractPath uploads the file at path to the Tika server and returns the
// extracted text with control characters stripped. Line structure is kept so
// downstream contact extraction can read the header lines.
func (c *Client) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	openPath, err := constrainPath(path)
	if err != nil {
		return "", err
	}
	payload, err := os.ReadFile(openPath)
	if err != nil {
		return "", err
	}

	ct := sniffContentType(fileName, payload)
	if !allowedTypes[ct] {
		return "", fmt.Errorf("%w: unsupported file type %q, upload a PDF or DOCX resume", domain.ErrInvalidArgument, ct)
	}

	u := c.baseURL
	if u == "" {
		u = "http://localhost:9998"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u+"/tika", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", ct)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("op=tika.extract: tika status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	return textx.SanitizeText(string(b)), nil
}

// sniffContentType prefers content sniffing over the file extension so a
// renamed file cannot masquerade as a supported format.
func sniffContentType(fileName string, payload []byte) string {
	detected := mimetype.Detect(payload)
	base := strings.SplitN(detected.String(), ";", 2)[0]
	if allowedTypes[base] {
		return base
	}
	if ct := contentTypeFromExt(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return base
}

func contentTypeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		if ext != "" {
			return mime.TypeByExtension(ext)
		}
	}
	return ""
}

// constrainPath rejects paths outside the temp dir or working directory;
// uploads are always staged in the system temp dir.
func constrainPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	for _, base := range []string{filepath.Clean(os.TempDir()), workingDir()} {
		if base == "" {
			continue
		}
		if abs == base || strings.HasPrefix(abs, base+string(os.PathSeparator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("disallowed path: %s", abs)
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Clean(wd)
}

var _ domain.TextExtractor = (*Client)(nil)
