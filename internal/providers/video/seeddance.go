package video

import (
	"context"
	"fmt"
	"strings"

	"promptstudio/internal/providers/wavespeed"
)

const seedDanceModel = "bytedance/seedance-v1-pro-i2v-720p"

// GenerateRequest describes an image-to-video task: one still frame plus a
// motion prompt.
type GenerateRequest struct {
	Prompt    string
	ImageURL  string
	Duration  int
	RequestID string
}

// Generator is the contract implemented by video providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*wavespeed.Artifact, error)
	Model() string
}

// SeedDance animates a source image into a short clip.
type SeedDance struct {
	client *wavespeed.Client
}

func NewSeedDance(client *wavespeed.Client) *SeedDance {
	return &SeedDance{client: client}
}

func (s *SeedDance) Model() string { return seedDanceModel }

func (s *SeedDance) Generate(ctx context.Context, req GenerateRequest) (*wavespeed.Artifact, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, fmt.Errorf("seeddance: source image url is required")
	}
	duration := req.Duration
	if duration <= 0 {
		duration = 5
	}
	if duration > 10 {
		duration = 10
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = "subtle natural motion, keep the original composition"
	}

	artifacts, err := s.client.Run(ctx, wavespeed.Task{
		Model:     seedDanceModel,
		Kind:      wavespeed.KindVideo,
		RequestID: req.RequestID,
		Prompt:    prompt,
		Input: map[string]any{
			"prompt":   prompt,
			"image":    req.ImageURL,
			"duration": duration,
		},
	})
	if err != nil {
		return nil, err
	}
	return &artifacts[0], nil
}

var _ Generator = (*SeedDance)(nil)
