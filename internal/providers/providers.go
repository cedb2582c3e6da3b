package providers

import (
	"context"
	"encoding/base64"
)

// Request is a single prompt sent to an LLM provider
type Request struct {
	Model       string
	Temperature float64
	System      string
	Prompt      string
	// JSON asks the provider to answer with a JSON object only
	JSON bool
	// Image is an optional photo sent alongside the prompt
	Image *Image
}

// Image is raw image data with its MIME type
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image data
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Provider defines the interface for an LLM provider
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
