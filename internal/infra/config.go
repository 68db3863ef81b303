package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	StoragePath    string
	StorageBaseURL string

	AdvisorProvider  string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string

	WaveSpeedAPIKey       string
	WaveSpeedBaseURL      string
	WaveSpeedPollInterval time.Duration
	WaveSpeedPollTimeout  time.Duration

	TemplateDir string

	SuggestBatchSize         int
	SuggestAttemptMultiplier int
	SuggestRefusalMaxLen     int
	SuggestRefusalPhrases    []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		AdvisorProvider:  getEnv("ADVISOR_PROVIDER", "claude"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),

		WaveSpeedAPIKey:       os.Getenv("WAVESPEED_API_KEY"),
		WaveSpeedBaseURL:      getEnv("WAVESPEED_BASE_URL", "https://api.wavespeed.ai"),
		WaveSpeedPollInterval: time.Second * time.Duration(getEnvInt("WAVESPEED_POLL_INTERVAL_SECONDS", 2)),
		WaveSpeedPollTimeout:  time.Second * time.Duration(getEnvInt("WAVESPEED_POLL_TIMEOUT_SECONDS", 120)),

		TemplateDir: os.Getenv("TEMPLATE_DIR"),

		SuggestBatchSize:         getEnvInt("SUGGEST_BATCH_SIZE", 5),
		SuggestAttemptMultiplier: getEnvInt("SUGGEST_ATTEMPT_MULTIPLIER", 2),
		SuggestRefusalMaxLen:     getEnvInt("SUGGEST_REFUSAL_MAX_LEN", 200),
		SuggestRefusalPhrases:    getEnvList("SUGGEST_REFUSAL_PHRASES"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.AdvisorProvider {
	case "claude", "openai", "static":
	default:
		return nil, fmt.Errorf("ADVISOR_PROVIDER must be one of claude, openai, static")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
