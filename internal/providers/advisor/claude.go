package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"promptstudio/internal/templates"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com/v1"
	defaultClaudeModel   = "claude-sonnet-4-20250514"
	anthropicVersion     = "2023-06-01"
	claudeMaxTokens      = 2048
)

// ClaudeAdvisorOptions configures an Anthropic Messages API advisor.
type ClaudeAdvisorOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Registry   *templates.Registry
	// Fallback handles Refine when the API cannot. SuggestBatch never falls
	// back; the collector owns retry there.
	Fallback   Advisor
	OnFallback func(reason string)
}

type ClaudeAdvisor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	registry   *templates.Registry
	fallback   Advisor
	onFallback func(reason string)
}

func NewClaudeAdvisor(opts ClaudeAdvisorOptions) (*ClaudeAdvisor, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("claude advisor requires a template registry")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultClaudeModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ClaudeAdvisor{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		httpClient: client,
		registry:   opts.Registry,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ClaudeAdvisor) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	if c.apiKey == "" {
		return c.fallbackRefine(ctx, req, "missing anthropic api key", nil)
	}
	pack := c.registry.ForModel(req.TargetModel)
	text, err := c.complete(ctx, pack.System, pack.RenderRefine(req.Spec.Subject, req.Spec.Summary()))
	if err != nil {
		return c.fallbackRefine(ctx, req, "anthropic request failed", err)
	}
	payload, err := parseModelPayload[refinePayload](text)
	if err != nil {
		return c.fallbackRefine(ctx, req, "anthropic response unparseable", err)
	}
	prompt := coalesce(payload.Prompt, req.Spec.Summary())
	if prompt == "" {
		return c.fallbackRefine(ctx, req, "anthropic response empty", nil)
	}
	return &RefineResponse{
		Title:    coalesce(payload.Title, req.Spec.Subject),
		Prompt:   prompt,
		Tags:     normalizeTags(payload.Tags),
		Provider: claudeProviderName,
	}, nil
}

func (c *ClaudeAdvisor) SuggestBatch(ctx context.Context, req BatchRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic api key is not configured")
	}
	pack := c.registry.ForModel(req.TargetModel)
	prompt := pack.RenderBatch(req.BatchSize, req.Spec.Subject, req.ExcludedLabels)
	return c.complete(ctx, pack.System, prompt)
}

func (c *ClaudeAdvisor) complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: claudeMaxTokens,
		System:    system,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode anthropic request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}
	var decoded claudeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode anthropic response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("anthropic error (%s): %s", decoded.Error.Type, decoded.Error.Message)
		}
		return "", fmt.Errorf("anthropic returned status %d", resp.StatusCode)
	}
	sb := &strings.Builder{}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return text, nil
}

func (c *ClaudeAdvisor) fallbackRefine(ctx context.Context, req RefineRequest, reason string, cause error) (*RefineResponse, error) {
	if c.fallback == nil {
		if cause != nil {
			return nil, fmt.Errorf("%s: %w", reason, cause)
		}
		return nil, fmt.Errorf("%s", reason)
	}
	if c.onFallback != nil {
		c.onFallback(reason)
	}
	res, err := c.fallback.Refine(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Metadata == nil {
		res.Metadata = map[string]string{}
	}
	res.Metadata["fallback_reason"] = reason
	return res, nil
}

var _ Advisor = (*ClaudeAdvisor)(nil)
