// Package zip bundles generated assets into a single download.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// Archive writes the assets into one zip blob. Filenames are deduplicated and
// given an extension derived from the MIME type when missing.
func Archive(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(assets))

	for i, asset := range assets {
		name := normalizeFilename(asset, i)
		if n := seen[name]; n > 0 {
			ext := path.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
		}
		seen[name]++

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeFilename(asset Asset, index int) string {
	name := path.Base(strings.TrimSpace(asset.Filename))
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("asset-%02d", index+1)
	}
	if path.Ext(name) == "" {
		name += extensionFor(asset.MIME)
	}
	return name
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
