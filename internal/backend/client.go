package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyBody is returned when a successful response carries no body
var ErrEmptyBody = errors.New("response body was empty")

// StatusError reports a non-2xx response together with the raw body the
// server sent back
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "Unknown error"
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.StatusCode, body)
}

// Client talks to the marketplace REST backend
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL joins a request path onto the base URL
func (c *Client) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// FilePart is one file in a multipart request
type FilePart struct {
	Field       string
	Path        string
	ContentType string
}

// PostMultipart streams the given files as a multipart/form-data POST
func (c *Client) PostMultipart(ctx context.Context, path string, parts []FilePart) (*http.Response, error) {
	for _, p := range parts {
		info, err := os.Stat(p.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p.Path)
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, parts))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	slog.Debug("Sending multipart request", "url", req.URL.String(), "parts", len(parts))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, parts []FilePart) error {
	for _, p := range parts {
		if err := writePart(mw, p); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, p FilePart) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p.Path, err)
	}
	defer f.Close()

	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.Field), quoteEscaper.Replace(filepath.Base(p.Path))))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", p.Field, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write part %s: %w", p.Field, err)
	}
	return nil
}

// PostJSON sends body as a JSON POST. A nil body sends an empty request.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// Get issues a GET against path with optional query parameters
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.URL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// CheckStatus returns a *StatusError for non-2xx responses. The body is
// consumed and closed in that case.
func CheckStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

// DecodeJSON checks the status, then decodes the body into v and closes it.
// An empty body yields ErrEmptyBody.
func DecodeJSON(resp *http.Response, op string, v any) error {
	if err := CheckStatus(resp, op); err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%s: %w", op, ErrEmptyBody)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// StreamToFile copies body into a new file at path. Nothing is left on disk
// when the body is empty or the copy fails.
func StreamToFile(body io.Reader, path string) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if n == 0 {
		os.Remove(path)
		return 0, ErrEmptyBody
	}
	return n, nil
}

// Download fetches an absolute URL into destPath, writing to a temporary
// sibling first so a failed transfer never leaves a partial file behind
func (c *Client) Download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	if err := CheckStatus(resp, "download"); err != nil {
		return err
	}
	defer resp.Body.Close()

	tempPath := destPath + ".tmp"
	n, err := StreamToFile(resp.Body, tempPath)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}

	slog.Debug("Downloaded file", "url", rawURL, "path", destPath, "bytes", n)
	return nil
}
