package appraisal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/market-ar/market/internal/gemini"
	"github.com/market-ar/market/internal/models"
	"github.com/market-ar/market/internal/ollama"
	"github.com/market-ar/market/internal/openai"
	"github.com/market-ar/market/internal/providers"
)

// Suggestion is a proposed set of listing fields for a piece of furniture
type Suggestion struct {
	ProductName string           `json:"product_name" yaml:"product_name"`
	Category    models.Category  `json:"category" yaml:"category"`
	Condition   models.Condition `json:"condition" yaml:"condition"`
	Price       float64          `json:"price" yaml:"price"`
	Notes       string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewProvider returns the named provider and the model it uses by default
func NewProvider(name string) (providers.Provider, string, error) {
	switch name {
	case "", "ollama":
		return ollama.New(), envOr("OLLAMA_MODEL", "mistral-small3.2:24b"), nil
	case "openai":
		return openai.New(), envOr("OPENAI_MODEL", "gpt-4o"), nil
	case "gemini":
		return gemini.New(), envOr("GEMINI_MODEL", "gemini-1.5-flash"), nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", name)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Service fills in listing fields from a free-text description
type Service struct {
	provider providers.Provider
	model    string
}

func NewService(provider providers.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

func buildPrompt() string {
	return fmt.Sprintf(`You are an experienced second-hand furniture appraiser. From the seller's description (and photo, if one is attached) propose listing details.

RULES:
1. category must be one of: %s
2. condition must be one of: %s
   - NEW: unused, original packaging or showroom state
   - USED: normal signs of use, fully functional
   - FAIR: visible wear or minor defects
3. price is a fair asking price in the seller's currency, a positive number without symbols
4. product_name is a short title, at most six words
5. Do not invent features that are not described or visible

OUTPUT FORMAT:
Respond with ONLY a JSON object:

{
  "product_name": "...",
  "category": "...",
  "condition": "...",
  "price": 0,
  "notes": "Any observations or uncertainties"
}`, models.JoinNames(models.Categories), models.JoinNames(models.Conditions))
}

// Suggest asks the provider for listing fields. imagePath is optional.
func (s *Service) Suggest(ctx context.Context, description, imagePath string) (*Suggestion, error) {
	description = strings.TrimSpace(description)
	if description == "" && imagePath == "" {
		return nil, errors.New("a description or a photo is required")
	}

	req := providers.Request{
		Model:       s.model,
		Temperature: 0.1,
		System:      buildPrompt(),
		Prompt:      fmt.Sprintf("Here is the seller's description:\n\n%s\n\nPropose the listing details as JSON.", description),
		JSON:        true,
	}
	if imagePath != "" {
		img, err := loadImage(imagePath)
		if err != nil {
			return nil, err
		}
		req.Image = img
	}

	raw, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s suggestion failed: %w", s.provider.Name(), err)
	}

	suggestion, err := parseSuggestion(raw)
	if err != nil {
		return nil, err
	}

	slog.Info("Generated listing suggestion",
		"provider", s.provider.Name(),
		"model", s.model,
		"category", suggestion.Category,
		"price", suggestion.Price)
	return suggestion, nil
}

// maxImageDimension bounds the longest side of photos sent to a provider
const maxImageDimension = 1024

// loadImage reads a photo for the provider. Photos larger than
// maxImageDimension are scaled down and re-encoded as JPEG; anything that
// cannot be decoded is sent as-is.
func loadImage(path string) (*providers.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Sending image without scaling", "path", path, "err", err)
		return &providers.Image{MIMEType: mimeType, Data: data}, nil
	}
	b := img.Bounds()
	if b.Dx() <= maxImageDimension && b.Dy() <= maxImageDimension {
		return &providers.Image{MIMEType: mimeType, Data: data}, nil
	}

	thumbnail := resize.Thumbnail(maxImageDimension, maxImageDimension, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode scaled image: %w", err)
	}
	slog.Debug("Scaled image for provider",
		"path", path,
		"from", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"to", fmt.Sprintf("%dx%d", thumbnail.Bounds().Dx(), thumbnail.Bounds().Dy()))
	return &providers.Image{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}

func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

func parseSuggestion(raw string) (*Suggestion, error) {
	var out struct {
		ProductName string  `json:"product_name"`
		Category    string  `json:"category"`
		Condition   string  `json:"condition"`
		Price       float64 `json:"price"`
		Notes       string  `json:"notes"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		slog.Warn("Failed to parse suggestion", "error", err, "response", raw)
		return nil, fmt.Errorf("failed to parse suggestion: %w", err)
	}

	category, err := models.ParseCategory(out.Category)
	if err != nil {
		return nil, fmt.Errorf("suggestion has %w", err)
	}
	condition, err := models.ParseCondition(out.Condition)
	if err != nil {
		return nil, fmt.Errorf("suggestion has %w", err)
	}
	if out.Price <= 0 {
		return nil, fmt.Errorf("suggestion has non-positive price %.2f", out.Price)
	}

	return &Suggestion{
		ProductName: strings.TrimSpace(out.ProductName),
		Category:    category,
		Condition:   condition,
		Price:       out.Price,
		Notes:       out.Notes,
	}, nil
}
