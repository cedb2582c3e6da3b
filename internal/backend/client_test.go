package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestPostMultipart(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.jpg", "alpha")
	b := writeTempFile(t, dir, "b.jpg", "bravo")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm failed: %v", err)
		}
		for field, want := range map[string]string{"file[0]": "alpha", "file[1]": "bravo"} {
			f, header, err := r.FormFile(field)
			if err != nil {
				t.Fatalf("missing part %s: %v", field, err)
			}
			data, _ := io.ReadAll(f)
			f.Close()
			if string(data) != want {
				t.Errorf("part %s: expected %q, got %q", field, want, data)
			}
			if header.Header.Get("Content-Type") != "image/jpeg" {
				t.Errorf("part %s: unexpected content type %q", field, header.Header.Get("Content-Type"))
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 5*time.Second)
	resp, err := client.PostMultipart(context.Background(), "/api/upload", []FilePart{
		{Field: "file[0]", Path: a, ContentType: "image/jpeg"},
		{Field: "file[1]", Path: b, ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("PostMultipart failed: %v", err)
	}
	defer resp.Body.Close()
	if err := CheckStatus(resp, "upload"); err != nil {
		t.Errorf("Unexpected status error: %v", err)
	}
}

func TestPostMultipartMissingFile(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)
	_, err := client.PostMultipart(context.Background(), "/x", []FilePart{{Field: "file", Path: "/does/not/exist"}})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestCheckStatusCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scene quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	resp, err := client.Get(context.Background(), "/anything", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	err = CheckStatus(resp, "progress")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "scene quota exceeded") {
		t.Errorf("Expected raw body, got %q", statusErr.Body)
	}
	if !strings.Contains(err.Error(), "progress returned status 429") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	resp, err := client.PostJSON(context.Background(), "/api/thing", map[string]string{"a": "b"})
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}

	var out map[string]any
	if err := DecodeJSON(resp, "thing", &out); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("Expected ErrEmptyBody, got %v", err)
	}
}

func TestGetEncodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "fbx" {
			t.Errorf("Expected format=fbx, got %q", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	resp, err := client.Get(context.Background(), "result", map[string][]string{"format": {"fbx"}})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(resp, "result", &out); err != nil || !out.OK {
		t.Errorf("Unexpected decode result %+v (err %v)", out, err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.fbx":
			w.Write([]byte("binary-mesh"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewClient("http://unused", time.Second)

	dest := filepath.Join(dir, "result.fbx")
	if err := client.Download(context.Background(), server.URL+"/ok.fbx", dest); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "binary-mesh" {
		t.Errorf("Unexpected file content %q (err %v)", data, err)
	}

	missing := filepath.Join(dir, "missing.fbx")
	if err := client.Download(context.Background(), server.URL+"/missing.fbx", missing); err == nil {
		t.Error("Expected 404 download to fail")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("Expected no file after failed download")
	}
	if _, err := os.Stat(missing + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be cleaned up")
	}
}

func TestStreamToFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if _, err := StreamToFile(strings.NewReader(""), path); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("Expected ErrEmptyBody, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected empty file to be removed")
	}
}
