package image

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"promptstudio/internal/imaging"
)

// maxSourceBytes caps how much of a reference image we are willing to pull.
const maxSourceBytes = 32 << 20

// FetchSource downloads a reference image and runs it through the input
// pipeline: decode, downscale anything past the vendor edge limit, re-encode.
// The returned SourceImage keeps the original URL alongside the prepared
// bytes so providers can send whichever form their API accepts.
func FetchSource(ctx context.Context, client *http.Client, url string) (SourceImage, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SourceImage{}, fmt.Errorf("image: build source request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return SourceImage{}, fmt.Errorf("image: fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return SourceImage{}, fmt.Errorf("image: fetch source: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return SourceImage{}, fmt.Errorf("image: read source: %w", err)
	}

	prepared, err := imaging.PrepareInput(data)
	if err != nil {
		return SourceImage{}, err
	}
	return SourceImage{URL: url, MIME: prepared.MIME, Data: prepared.Data}, nil
}
