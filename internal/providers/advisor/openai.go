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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// openAIModelAliases maps shorthand names users keep typing to the model IDs
// the API accepts.
var openAIModelAliases = map[string]string{
	"4o":       "gpt-4o",
	"4o-mini":  "gpt-4o-mini",
	"gpt4o":    "gpt-4o",
	"gpt-4o-m": "gpt-4o-mini",
}

// OpenAIAdvisorOptions configures a Chat Completions advisor. Org, when set,
// is sent as the OpenAI-Organization header so usage bills against that
// organization instead of the key's default.
type OpenAIAdvisorOptions struct {
	APIKey     string
	Org        string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Registry   *templates.Registry
	Fallback   Advisor
	OnFallback func(reason string)
	OnWarning  func(message string)
}

type OpenAIAdvisor struct {
	apiKey     string
	org        string
	model      string
	baseURL    string
	httpClient *http.Client
	registry   *templates.Registry
	fallback   Advisor
	onFallback func(reason string)
}

func NewOpenAIAdvisor(opts OpenAIAdvisorOptions) (*OpenAIAdvisor, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("openai advisor requires a template registry")
	}
	model := strings.TrimSpace(opts.Model)
	if alias, ok := openAIModelAliases[strings.ToLower(model)]; ok {
		if opts.OnWarning != nil {
			opts.OnWarning(fmt.Sprintf("openai model %q normalized to %q", model, alias))
		}
		model = alias
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &OpenAIAdvisor{
		apiKey:     strings.TrimSpace(opts.APIKey),
		org:        strings.TrimSpace(opts.Org),
		model:      model,
		baseURL:    baseURL,
		httpClient: client,
		registry:   opts.Registry,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	ResponseFormat *openAIFormat       `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *OpenAIAdvisor) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	if o.apiKey == "" {
		return o.fallbackRefine(ctx, req, "missing openai api key", nil)
	}
	pack := o.registry.ForModel(req.TargetModel)
	text, err := o.complete(ctx, pack.System, pack.RenderRefine(req.Spec.Subject, req.Spec.Summary()), true)
	if err != nil {
		return o.fallbackRefine(ctx, req, "openai request failed", err)
	}
	payload, err := parseModelPayload[refinePayload](text)
	if err != nil {
		return o.fallbackRefine(ctx, req, "openai response unparseable", err)
	}
	prompt := coalesce(payload.Prompt, req.Spec.Summary())
	if prompt == "" {
		return o.fallbackRefine(ctx, req, "openai response empty", nil)
	}
	return &RefineResponse{
		Title:    coalesce(payload.Title, req.Spec.Subject),
		Prompt:   prompt,
		Tags:     normalizeTags(payload.Tags),
		Provider: openAIProviderName,
	}, nil
}

func (o *OpenAIAdvisor) SuggestBatch(ctx context.Context, req BatchRequest) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}
	pack := o.registry.ForModel(req.TargetModel)
	prompt := pack.RenderBatch(req.BatchSize, req.Spec.Subject, req.ExcludedLabels)
	return o.complete(ctx, pack.System, prompt, false)
}

func (o *OpenAIAdvisor) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	chatReq := openAIChatRequest{
		Model: o.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	if jsonMode {
		chatReq.ResponseFormat = &openAIFormat{Type: "json_object"}
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.org != "" {
		httpReq.Header.Set("OpenAI-Organization", o.org)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}
	var decoded openAIChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode openai response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("openai error (%s): %s", decoded.Error.Type, decoded.Error.Message)
		}
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return text, nil
}

func (o *OpenAIAdvisor) fallbackRefine(ctx context.Context, req RefineRequest, reason string, cause error) (*RefineResponse, error) {
	if o.fallback == nil {
		if cause != nil {
			return nil, fmt.Errorf("%s: %w", reason, cause)
		}
		return nil, fmt.Errorf("%s", reason)
	}
	if o.onFallback != nil {
		o.onFallback(reason)
	}
	res, err := o.fallback.Refine(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Metadata == nil {
		res.Metadata = map[string]string{}
	}
	res.Metadata["fallback_reason"] = reason
	return res, nil
}

var _ Advisor = (*OpenAIAdvisor)(nil)
