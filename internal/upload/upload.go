package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/market-ar/market/internal/backend"
)

const (
	imagePart = "image-file"
	modelPart = "model-file"
)

// Client uploads listing assets to the backend
type Client struct {
	api *backend.Client
}

// NewClient creates an upload client on top of the shared backend client
func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

type imageUploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

type modelUploadResponse struct {
	ModelURL string `json:"modelUrl"`
}

// UploadImage sends a picture for the listing and returns its hosted URL
func (c *Client) UploadImage(ctx context.Context, listingID int64, path string) (string, error) {
	var out imageUploadResponse
	if err := c.send(ctx, listingID, "image", backend.FilePart{
		Field:       imagePart,
		Path:        path,
		ContentType: "image/*",
	}, &out); err != nil {
		return "", err
	}
	if out.ImageURL == "" {
		return "", fmt.Errorf("image upload for listing %d returned no imageUrl: %w", listingID, backend.ErrEmptyBody)
	}

	slog.Info("Uploaded listing image", "listing_id", listingID, "url", out.ImageURL)
	return out.ImageURL, nil
}

// UploadModel sends a 3D model for the listing and returns its hosted URL
func (c *Client) UploadModel(ctx context.Context, listingID int64, path string) (string, error) {
	var out modelUploadResponse
	if err := c.send(ctx, listingID, "model", backend.FilePart{
		Field:       modelPart,
		Path:        path,
		ContentType: "application/octet-stream",
	}, &out); err != nil {
		return "", err
	}
	if out.ModelURL == "" {
		return "", fmt.Errorf("model upload for listing %d returned no modelUrl: %w", listingID, backend.ErrEmptyBody)
	}

	slog.Info("Uploaded listing model", "listing_id", listingID, "url", out.ModelURL)
	return out.ModelURL, nil
}

func (c *Client) send(ctx context.Context, listingID int64, kind string, part backend.FilePart, out any) error {
	path := fmt.Sprintf("/api/listings/%d/%s", listingID, kind)
	op := fmt.Sprintf("%s upload for listing %d", kind, listingID)

	resp, err := c.api.PostMultipart(ctx, path, []backend.FilePart{part})
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	if err := backend.DecodeJSON(resp, op, out); err != nil {
		return err
	}
	return nil
}
