package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"promptstudio/internal/infra"
	"promptstudio/internal/sqlinline"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderWaveSpeed = "wavespeed"
)

// Store persists vendor API keys in the integration_tokens table so that
// deployments can rotate credentials without restarting the binaries.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) AnthropicAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderAnthropic)
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

func (s *Store) WaveSpeedAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderWaveSpeed)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken upserts the API key for a known provider.
func (s *Store) SetToken(ctx context.Context, provider, key string) error {
	switch provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderWaveSpeed:
	default:
		return errors.New("credentials: unsupported provider " + provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("credentials: api key is required")
	}
	return s.upsert(ctx, provider, key, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
