package wavespeed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"promptstudio/internal/infra"
)

// Options controls how the WaveSpeed client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Kind discriminates what a task is expected to produce.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Task is one submission to a WaveSpeed-hosted model. Input carries the
// model-specific request fields verbatim; the client only owns transport,
// polling and download.
type Task struct {
	Model       string
	Kind        Kind
	RequestID   string
	Prompt      string
	AspectRatio string
	Quantity    int
	Input       map[string]any
}

// Artifact is one downloaded output, normalized for storage.
type Artifact struct {
	StorageKey string
	MIME       string
	Width      int
	Height     int
	Data       []byte
}

// Client talks to the WaveSpeed prediction API: submit a task, poll its
// result until it settles, download the outputs. When no API key is
// configured it produces deterministic synthetic artifacts instead, so the
// whole pipeline stays exercisable offline.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.wavespeed.ai"
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Minute
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		httpClient:   client,
		logger:       logger,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}, nil
}

// Offline reports whether the client will synthesize artifacts locally.
func (c *Client) Offline() bool {
	return c.apiKey == ""
}

type predictionEnvelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    predictionData `json:"data"`
}

type predictionData struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Outputs []string `json:"outputs"`
	Error   string   `json:"error"`
}

// Run executes one task end to end and returns its downloaded artifacts.
func (c *Client) Run(ctx context.Context, task Task) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(task.Model) == "" {
		return nil, fmt.Errorf("wavespeed: task model is required")
	}

	if c.Offline() {
		return c.syntheticArtifacts(task), nil
	}

	id, err := c.submit(ctx, task)
	if err != nil {
		return nil, err
	}
	outputs, err := c.poll(ctx, id)
	if err != nil {
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(outputs))
	for i, output := range outputs {
		artifact, err := c.download(ctx, task, output, i)
		if err != nil {
			c.logger.Warn().Err(err).Str("prediction_id", id).Msg("wavespeed: output download failed")
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("wavespeed: prediction %s produced no downloadable outputs", id)
	}
	return artifacts, nil
}

func (c *Client) submit(ctx context.Context, task Task) (string, error) {
	payload := map[string]any{}
	for k, v := range task.Input {
		payload[k] = v
	}
	if _, ok := payload["prompt"]; !ok && strings.TrimSpace(task.Prompt) != "" {
		payload["prompt"] = task.Prompt
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("wavespeed: marshal task: %w", err)
	}
	endpoint := c.baseURL + "/api/v3/" + strings.TrimLeft(task.Model, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("wavespeed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var envelope predictionEnvelope
	if err := c.do(req, &envelope); err != nil {
		return "", err
	}
	if envelope.Data.ID == "" {
		return "", fmt.Errorf("wavespeed: submit returned no prediction id (%s)", envelope.Message)
	}
	c.logger.Debug().
		Str("model", task.Model).
		Str("prediction_id", envelope.Data.ID).
		Msg("wavespeed: task submitted")
	return envelope.Data.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) ([]string, error) {
	deadline := time.Now().Add(c.pollTimeout)
	endpoint := fmt.Sprintf("%s/api/v3/predictions/%s/result", c.baseURL, url.PathEscape(id))

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("wavespeed: create poll request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		var envelope predictionEnvelope
		if err := c.do(req, &envelope); err != nil {
			return nil, err
		}

		switch envelope.Data.Status {
		case "completed":
			return envelope.Data.Outputs, nil
		case "failed":
			return nil, fmt.Errorf("wavespeed: prediction %s failed: %s", id, envelope.Data.Error)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("wavespeed: prediction %s still %q after %s", id, envelope.Data.Status, c.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) download(ctx context.Context, task Task, output string, index int) (Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, output, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("wavespeed: create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("wavespeed: download output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Artifact{}, fmt.Errorf("wavespeed: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("wavespeed: read output: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = defaultMIME(task.Kind)
	}
	width, height := 0, 0
	if task.Kind == KindImage {
		width, height = decodeImageDimensions(data)
	}
	return Artifact{
		StorageKey: storageKey(task, seedFromString(output), index+1, extensionForMIME(mime, task.Kind)),
		MIME:       mime,
		Width:      width,
		Height:     height,
		Data:       data,
	}, nil
}

func (c *Client) do(req *http.Request, out *predictionEnvelope) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wavespeed: call api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("wavespeed: read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("wavespeed: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := out.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("wavespeed: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *Client) syntheticArtifacts(task Task) []Artifact {
	quantity := task.Quantity
	if quantity <= 0 || task.Kind == KindVideo {
		quantity = 1
	}

	artifacts := make([]Artifact, quantity)
	for i := 0; i < quantity; i++ {
		seed := deterministicSeed(task.RequestID, task.Model, task.Prompt, i)
		if task.Kind == KindVideo {
			artifacts[i] = Artifact{
				StorageKey: storageKey(task, seed, i+1, "mp4"),
				MIME:       "video/mp4",
				Data:       renderSyntheticVideo(seed, task.Prompt),
			}
			continue
		}
		width, height := aspectDimensions(task.AspectRatio)
		artifacts[i] = Artifact{
			StorageKey: storageKey(task, seed, i+1, "png"),
			MIME:       "image/png",
			Width:      width,
			Height:     height,
			Data:       renderSyntheticImage(width, height, seed),
		}
	}

	c.logger.Debug().
		Str("request_id", task.RequestID).
		Str("model", task.Model).
		Int("quantity", quantity).
		Msg("wavespeed: produced synthetic artifacts (no api key)")

	return artifacts
}

func storageKey(task Task, seed string, index int, ext string) string {
	model := url.PathEscape(strings.ReplaceAll(task.Model, "/", "-"))
	return fmt.Sprintf("%s/%s/%s-%02d.%s", task.Kind, model, seed, index, ext)
}

func defaultMIME(kind Kind) string {
	if kind == KindVideo {
		return "video/mp4"
	}
	return "image/png"
}

func extensionForMIME(mime string, kind Kind) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	}
	if kind == KindVideo {
		return "mp4"
	}
	return "png"
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func aspectDimensions(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:3":
		return 1024, 768
	case "3:4":
		return 768, 1024
	default:
		return 1024, 1024
	}
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v|", part)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func seedFromString(s string) string {
	return deterministicSeed(s)
}

func renderSyntheticImage(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	band := height / 8
	if band < 24 {
		band = 24
	}
	for y := 0; y < height; y += band * 2 {
		stripe := image.Rect(0, y, width, min(height, y+band))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func renderSyntheticVideo(seed, prompt string) []byte {
	lines := []string{
		"Synthetic video placeholder",
		"Seed: " + seed,
		"Prompt: " + strings.TrimSpace(prompt),
		"",
		"Rendered bytes appear here once an API key is configured.",
	}
	return []byte(strings.Join(lines, "\n"))
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "4a90d9c3"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: hexByte(segment[0:2]),
		G: hexByte(segment[2:4]),
		B: hexByte(segment[4:6]),
		A: 255,
	}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
