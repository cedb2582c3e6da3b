package conversion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/market-ar/market/internal/backend"
)

const (
	gltfToSTLPath = "/api/models/convert/gltf-to-stl"
	fbxToGLBPath  = "/api/models/convert/fbx-to-glb"
)

// Client converts 3D models through the backend conversion endpoints
type Client struct {
	api     *backend.Client
	workDir string
	now     func() time.Time
}

// NewClient creates a conversion client writing results into workDir
func NewClient(api *backend.Client, workDir string) *Client {
	return &Client{
		api:     api,
		workDir: workDir,
		now:     time.Now,
	}
}

// ConvertRemoteToSTL downloads a hosted glTF binary and converts it to STL.
// The returned path points into the work directory.
func (c *Client) ConvertRemoteToSTL(ctx context.Context, remoteURL string) (string, error) {
	if err := os.MkdirAll(c.workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}

	src, err := os.CreateTemp(c.workDir, "source-*.glb")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	srcPath := src.Name()
	src.Close()
	defer os.Remove(srcPath)

	slog.Info("Downloading model for conversion", "url", remoteURL)
	if err := c.api.Download(ctx, remoteURL, srcPath); err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	dest := filepath.Join(c.workDir, fmt.Sprintf("%d_model.stl", c.now().UnixMilli()))
	if err := c.convert(ctx, gltfToSTLPath, backend.FilePart{
		Field:       "file",
		Path:        srcPath,
		ContentType: "model/gltf-binary",
	}, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// ConvertLocalFBXToGLB converts a local FBX file to GLB
func (c *Client) ConvertLocalFBXToGLB(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(c.workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}

	dest := filepath.Join(c.workDir, fmt.Sprintf("%d_output.glb", c.now().UnixMilli()))
	if err := c.convert(ctx, fbxToGLBPath, backend.FilePart{
		Field:       "file",
		Path:        path,
		ContentType: "text/plain",
	}, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *Client) convert(ctx context.Context, endpoint string, part backend.FilePart, dest string) error {
	resp, err := c.api.PostMultipart(ctx, endpoint, []backend.FilePart{part})
	if err != nil {
		return fmt.Errorf("conversion request failed: %w", err)
	}
	if err := backend.CheckStatus(resp, "conversion"); err != nil {
		return err
	}
	defer resp.Body.Close()

	n, err := backend.StreamToFile(resp.Body, dest)
	if err != nil {
		return fmt.Errorf("failed to save converted model: %w", err)
	}

	slog.Info("Converted model", "endpoint", endpoint, "path", dest, "bytes", n)
	return nil
}

// SaveAs copies a converted file to a destination chosen by the user
func SaveAs(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open converted file: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy converted file: %w", err)
	}
	return out.Close()
}
