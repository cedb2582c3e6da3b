package recap

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/market-ar/market/internal/backend"
)

// SceneInfo is the photoscene object the service wraps its answers in
type SceneInfo struct {
	ID          string   `json:"photosceneid"`
	Progress    Progress `json:"progress"`
	ProgressMsg string   `json:"progressmsg"`
	SceneLink   string   `json:"scenelink"`
}

type sceneEnvelope struct {
	Photoscene *SceneInfo `json:"Photoscene"`
	Msg        string     `json:"msg,omitempty"`
}

type createSceneRequest struct {
	SceneName string `json:"scenename"`
	Format    string `json:"format,omitempty"`
}

// UploadedFile describes one photo accepted by the service
type UploadedFile struct {
	Filename string `json:"filename"`
	FileID   string `json:"fileid"`
	FileType string `json:"filetype"`
	FileSize string `json:"filesize"`
	Msg      string `json:"msg"`
}

// UploadResponse is returned for every photo batch
type UploadResponse struct {
	SceneID string         `json:"photosceneid"`
	Files   []UploadedFile `json:"file"`
}

var errNoPhotoscene = errors.New("response carried no photoscene")

// Client is the stateless transport for the photogrammetry endpoints
type Client struct {
	api *backend.Client
}

// NewClient creates a reconstruction client on the shared backend client
func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

func scenePath(id string, suffix string) string {
	return "/api/recap/photoscene/" + url.PathEscape(id) + suffix
}

// CreateScene registers a new photoscene and returns its descriptor
func (c *Client) CreateScene(ctx context.Context, name, format string) (*SceneInfo, error) {
	resp, err := c.api.PostJSON(ctx, "/api/recap/photoscene", createSceneRequest{
		SceneName: name,
		Format:    format,
	})
	if err != nil {
		return nil, fmt.Errorf("create photoscene failed: %w", err)
	}

	var env sceneEnvelope
	if err := backend.DecodeJSON(resp, "create photoscene", &env); err != nil {
		return nil, err
	}
	if env.Photoscene == nil || env.Photoscene.ID == "" {
		return nil, fmt.Errorf("create photoscene: %w", errNoPhotoscene)
	}
	return env.Photoscene, nil
}

// UploadFiles sends one batch of JPEG photos as parts file[0]..file[n-1]
func (c *Client) UploadFiles(ctx context.Context, sceneID string, files []string) (*UploadResponse, error) {
	parts := make([]backend.FilePart, len(files))
	for i, f := range files {
		parts[i] = backend.FilePart{
			Field:       fmt.Sprintf("file[%d]", i),
			Path:        f,
			ContentType: "image/jpeg",
		}
	}

	resp, err := c.api.PostMultipart(ctx, scenePath(sceneID, "/file"), parts)
	if err != nil {
		return nil, fmt.Errorf("photo upload failed: %w", err)
	}

	var out UploadResponse
	if err := backend.DecodeJSON(resp, "photo upload", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process asks the service to start reconstructing the scene
func (c *Client) Process(ctx context.Context, sceneID string) (string, error) {
	resp, err := c.api.PostJSON(ctx, scenePath(sceneID, "/process"), nil)
	if err != nil {
		return "", fmt.Errorf("process photoscene failed: %w", err)
	}
	var env sceneEnvelope
	if err := backend.DecodeJSON(resp, "process photoscene", &env); err != nil && !errors.Is(err, backend.ErrEmptyBody) {
		return "", err
	}
	return env.Msg, nil
}

// Progress fetches the current progress of the scene
func (c *Client) Progress(ctx context.Context, sceneID string) (*SceneInfo, error) {
	resp, err := c.api.Get(ctx, scenePath(sceneID, "/progress"), nil)
	if err != nil {
		return nil, fmt.Errorf("progress check failed: %w", err)
	}

	var env sceneEnvelope
	if err := backend.DecodeJSON(resp, "progress check", &env); err != nil {
		return nil, err
	}
	if env.Photoscene == nil {
		return nil, fmt.Errorf("progress check: %w", errNoPhotoscene)
	}
	return env.Photoscene, nil
}

// Result fetches the finished scene in the requested format
func (c *Client) Result(ctx context.Context, sceneID, format string) (*SceneInfo, error) {
	resp, err := c.api.Get(ctx, scenePath(sceneID, "/result"), url.Values{"format": {format}})
	if err != nil {
		return nil, fmt.Errorf("result request failed: %w", err)
	}

	var env sceneEnvelope
	if err := backend.DecodeJSON(resp, "result request", &env); err != nil {
		return nil, err
	}
	if env.Photoscene == nil {
		return nil, fmt.Errorf("result request: %w", errNoPhotoscene)
	}
	return env.Photoscene, nil
}

// Download saves a finished scene link to dest
func (c *Client) Download(ctx context.Context, link, dest string) error {
	return c.api.Download(ctx, link, dest)
}
