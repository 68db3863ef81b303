package image

import (
	"context"

	"promptstudio/internal/providers/wavespeed"
)

// SourceImage is a conditioning input for editing providers. When Data is
// set it carries the prepared (downscaled, re-encoded) bytes and takes
// precedence over URL.
type SourceImage struct {
	URL  string
	MIME string
	Data []byte
}

// GenerateRequest is the normalized request passed to any image provider.
// Prompt is the finished prompt text; providers do not re-render specs.
type GenerateRequest struct {
	Prompt       string
	Negative     string
	Quantity     int
	AspectRatio  string
	RequestID    string
	SourceImages []SourceImage
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]wavespeed.Artifact, error)
	Model() string
}
