package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("ADVISOR_PROVIDER", "")
	t.Setenv("SUGGEST_BATCH_SIZE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AdvisorProvider != "claude" {
		t.Fatalf("AdvisorProvider = %q, want claude", cfg.AdvisorProvider)
	}
	if cfg.SuggestBatchSize != 5 {
		t.Fatalf("SuggestBatchSize = %d, want 5", cfg.SuggestBatchSize)
	}
	if cfg.SuggestAttemptMultiplier != 2 {
		t.Fatalf("SuggestAttemptMultiplier = %d, want 2", cfg.SuggestAttemptMultiplier)
	}
	if cfg.WaveSpeedPollInterval != 2*time.Second {
		t.Fatalf("WaveSpeedPollInterval = %s, want 2s", cfg.WaveSpeedPollInterval)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoadConfigRejectsUnknownAdvisor(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("ADVISOR_PROVIDER", "bard")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported advisor provider")
	}
}

func TestLoadConfigParsesRefusalPhrases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("ADVISOR_PROVIDER", "openai")
	t.Setenv("SUGGEST_REFUSAL_PHRASES", "cannot generate, not able to ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"cannot generate", "not able to"}
	if len(cfg.SuggestRefusalPhrases) != len(want) {
		t.Fatalf("SuggestRefusalPhrases = %#v, want %#v", cfg.SuggestRefusalPhrases, want)
	}
	for i, phrase := range want {
		if cfg.SuggestRefusalPhrases[i] != phrase {
			t.Fatalf("SuggestRefusalPhrases[%d] = %q, want %q", i, cfg.SuggestRefusalPhrases[i], phrase)
		}
	}
}
