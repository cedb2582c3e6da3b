package upload

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

	"github.com/market-ar/market/internal/backend"
)

func newTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/listings/7/image" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		f, header, err := r.FormFile("image-file")
		if err != nil {
			t.Fatalf("missing image-file part: %v", err)
		}
		defer f.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/*" {
			t.Errorf("Expected image/* content type, got %q", ct)
		}
		if header.Filename != "chair.jpg" {
			t.Errorf("Expected filename chair.jpg, got %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"imageUrl":"https://cdn/7/chair.jpg"}`))
	}))
	defer server.Close()

	client := NewClient(backend.NewClient(server.URL, 5*time.Second))
	url, err := client.UploadImage(context.Background(), 7, newTestFile(t, "chair.jpg", "jpeg-bytes"))
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if url != "https://cdn/7/chair.jpg" {
		t.Errorf("Unexpected url %q", url)
	}
}

func TestUploadModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings/3/model" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		f, header, err := r.FormFile("model-file")
		if err != nil {
			t.Fatalf("missing model-file part: %v", err)
		}
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "glb" {
			t.Errorf("Unexpected payload %q", data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("Expected octet-stream, got %q", ct)
		}
		w.Write([]byte(`{"modelUrl":"https://cdn/3/bed.glb"}`))
	}))
	defer server.Close()

	client := NewClient(backend.NewClient(server.URL, 5*time.Second))
	url, err := client.UploadModel(context.Background(), 3, newTestFile(t, "bed.glb", "glb"))
	if err != nil {
		t.Fatalf("UploadModel failed: %v", err)
	}
	if url != "https://cdn/3/bed.glb" {
		t.Errorf("Unexpected url %q", url)
	}
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error carries body and listing id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bucket unavailable", http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var statusErr *backend.StatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != 500 {
					t.Fatalf("Expected 500 StatusError, got %v", err)
				}
				if !strings.Contains(err.Error(), "listing 9") || !strings.Contains(err.Error(), "bucket unavailable") {
					t.Errorf("Unexpected message %q", err.Error())
				}
			},
		},
		{
			name: "empty success body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, backend.ErrEmptyBody) {
					t.Errorf("Expected ErrEmptyBody, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(backend.NewClient(server.URL, 5*time.Second))
			_, err := client.UploadImage(context.Background(), 9, newTestFile(t, "x.jpg", "x"))
			tt.check(t, err)
		})
	}
}

func TestUploadRejectsMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(backend.NewClient(server.URL, 5*time.Second))

	url, err := client.UploadImage(context.Background(), 4, newTestFile(t, "desk.jpg", "x"))
	if !errors.Is(err, backend.ErrEmptyBody) || url != "" {
		t.Errorf("Expected ErrEmptyBody for image without imageUrl, got %q %v", url, err)
	}
	if err != nil && !strings.Contains(err.Error(), "listing 4") {
		t.Errorf("Expected listing id in error, got %q", err.Error())
	}

	url, err = client.UploadModel(context.Background(), 4, newTestFile(t, "desk.glb", "x"))
	if !errors.Is(err, backend.ErrEmptyBody) || url != "" {
		t.Errorf("Expected ErrEmptyBody for model without modelUrl, got %q %v", url, err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := NewClient(backend.NewClient("http://127.0.0.1:1", time.Second))
	if _, err := client.UploadModel(context.Background(), 1, "/no/such/model.glb"); err == nil {
		t.Error("Expected missing file to fail before any request")
	}
}
