package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/market-ar/market/internal/providers"
)

func TestGenerate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	o := &Ollama{BaseURL: server.URL, HTTPClient: server.Client()}
	out, err := o.Generate(context.Background(), providers.Request{
		Model:  "mistral-small3.2:24b",
		Prompt: "hello",
		JSON:   true,
		Image:  &providers.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "ok" {
		t.Errorf("Unexpected output %q", out)
	}
	if got["format"] != "json" || got["stream"] != false {
		t.Errorf("Unexpected payload %v", got)
	}
	if images, _ := got["images"].([]any); len(images) != 1 || images[0] != "AQID" {
		t.Errorf("Expected base64 image, got %v", got["images"])
	}
}

func TestNewUsesEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434/")
	if o := New(); o.BaseURL != "http://gpu-box:11434" {
		t.Errorf("Unexpected base url %s", o.BaseURL)
	}
}
