// Package imaging prepares user-supplied reference images before they are
// handed to editing providers.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	disimaging "github.com/disintegration/imaging"
)

// MaxInputEdge is the longest edge accepted by the editing providers without
// upstream resizing fees; larger inputs get downscaled before upload.
const MaxInputEdge = 2048

// Prepared is a provider-ready input image.
type Prepared struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// PrepareInput decodes, downscales when needed and re-encodes an input image.
// PNG stays PNG; everything else becomes JPEG.
func PrepareInput(data []byte) (*Prepared, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode input: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > MaxInputEdge || height > MaxInputEdge {
		if width >= height {
			img = disimaging.Resize(img, MaxInputEdge, 0, disimaging.Lanczos)
		} else {
			img = disimaging.Resize(img, 0, MaxInputEdge, disimaging.Lanczos)
		}
		bounds = img.Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}

	var buf bytes.Buffer
	mime := "image/jpeg"
	if format == "png" {
		mime = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
	}

	return &Prepared{
		Data:   buf.Bytes(),
		MIME:   mime,
		Width:  width,
		Height: height,
	}, nil
}

// Thumbnail renders a small cover-cropped preview for gallery listings.
func Thumbnail(data []byte, edge int) ([]byte, error) {
	if edge <= 0 {
		edge = 256
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode input: %w", err)
	}
	thumb := disimaging.Fill(img, edge, edge, disimaging.Center, disimaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
