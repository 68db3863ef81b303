package image

import (
	"context"
	"fmt"
	"strings"

	"promptstudio/internal/providers/wavespeed"
)

const seedreamModel = "bytedance/seedream-v4"

// seedreamSizes maps the supported aspect ratios to the pixel sizes the model
// accepts.
var seedreamSizes = map[string]string{
	"1:1":  "2048*2048",
	"4:3":  "2304*1728",
	"3:4":  "1728*2304",
	"16:9": "2560*1440",
	"9:16": "1440*2560",
}

// Seedream performs text-to-image generation.
type Seedream struct {
	client *wavespeed.Client
}

func NewSeedream(client *wavespeed.Client) *Seedream {
	return &Seedream{client: client}
}

func (s *Seedream) Model() string { return seedreamModel }

func (s *Seedream) Generate(ctx context.Context, req GenerateRequest) ([]wavespeed.Artifact, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("seedream: prompt is required")
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	size, ok := seedreamSizes[strings.TrimSpace(req.AspectRatio)]
	if !ok {
		size = seedreamSizes["1:1"]
	}

	input := map[string]any{
		"prompt":            req.Prompt,
		"size":              size,
		"max_images":        quantity,
		"enable_sync_mode":  false,
		"enable_base64_out": false,
	}
	if negative := strings.TrimSpace(req.Negative); negative != "" {
		input["negative_prompt"] = negative
	}

	return s.client.Run(ctx, wavespeed.Task{
		Model:       seedreamModel,
		Kind:        wavespeed.KindImage,
		RequestID:   req.RequestID,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Quantity:    quantity,
		Input:       input,
	})
}

var _ Generator = (*Seedream)(nil)
