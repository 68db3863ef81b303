package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"promptstudio/internal/providers/wavespeed"
)

const nanoBananaModel = "google/nano-banana/edit"

// NanoBanana performs instruction-driven image editing. It always needs at
// least one source image; text-to-image requests belong to Seedream.
type NanoBanana struct {
	client *wavespeed.Client
}

func NewNanoBanana(client *wavespeed.Client) *NanoBanana {
	return &NanoBanana{client: client}
}

func (n *NanoBanana) Model() string { return nanoBananaModel }

func (n *NanoBanana) Generate(ctx context.Context, req GenerateRequest) ([]wavespeed.Artifact, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("nanobanana: prompt is required")
	}
	refs := sourceImageRefs(req.SourceImages)
	if len(refs) == 0 {
		return nil, fmt.Errorf("nanobanana: at least one source image is required")
	}

	return n.client.Run(ctx, wavespeed.Task{
		Model:       nanoBananaModel,
		Kind:        wavespeed.KindImage,
		RequestID:   req.RequestID,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Quantity:    1,
		Input: map[string]any{
			"prompt":        req.Prompt,
			"images":        refs,
			"output_format": "png",
		},
	})
}

// sourceImageRefs renders source images the way the edit API accepts them:
// prepared bytes as data URIs, otherwise the original URL.
func sourceImageRefs(sources []SourceImage) []string {
	refs := make([]string, 0, len(sources))
	for _, src := range sources {
		switch {
		case len(src.Data) > 0:
			mime := src.MIME
			if mime == "" {
				mime = "image/png"
			}
			refs = append(refs, "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(src.Data))
		case strings.TrimSpace(src.URL) != "":
			refs = append(refs, src.URL)
		}
	}
	return refs
}

var _ Generator = (*NanoBanana)(nil)
