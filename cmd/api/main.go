package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"promptstudio/internal/http/handlers"
	"promptstudio/internal/http/httpapi"
	"promptstudio/internal/infra"
	"promptstudio/internal/infra/credentials"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/providers/image"
	"promptstudio/internal/providers/video"
	"promptstudio/internal/providers/wavespeed"
	"promptstudio/internal/storage"
	"promptstudio/internal/templates"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	registry, err := templates.Load(cfg.TemplateDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to load template packs")
	}

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	credStore := credentials.NewStore(runner)
	adv := buildAdvisor(ctx, cfg, registry, credStore, logger)

	suggester, err := advisor.NewSuggester(advisor.SuggesterOptions{
		Advisor:           adv,
		Provider:          cfg.AdvisorProvider,
		Registry:          registry,
		SQL:               runner,
		Logger:            &logger,
		BatchSize:         cfg.SuggestBatchSize,
		AttemptMultiplier: cfg.SuggestAttemptMultiplier,
		RefusalMaxLen:     cfg.SuggestRefusalMaxLen,
		RefusalPhrases:    cfg.SuggestRefusalPhrases,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure suggester")
	}

	wsClient, err := wavespeed.NewClient(wavespeed.Options{
		APIKey:       resolveWaveSpeedKey(ctx, cfg, credStore, logger),
		BaseURL:      cfg.WaveSpeedBaseURL,
		Logger:       &logger,
		PollInterval: cfg.WaveSpeedPollInterval,
		PollTimeout:  cfg.WaveSpeedPollTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure wavespeed client")
	}

	app := &handlers.App{
		SQL:       runner,
		Config:    cfg,
		Logger:    &logger,
		Advisor:   adv,
		Suggester: suggester,
		Registry:  registry,
		Store:     store,
		ImageProviders: map[string]image.Generator{
			"nano-banana": image.NewNanoBanana(wsClient),
			"seedream":    image.NewSeedream(wsClient),
		},
		VideoProviders: map[string]video.Generator{
			"seeddance": video.NewSeedDance(wsClient),
		},
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)
	if err := server.Run(ctx, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}

func buildAdvisor(ctx context.Context, cfg *infra.Config, registry *templates.Registry, credStore *credentials.Store, logger infra.Logger) advisor.Advisor {
	static := advisor.NewStaticAdvisor(registry)
	onFallback := func(reason string) {
		logger.Warn().Str("reason", reason).Msg("advisor: fell back to static")
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}

	switch cfg.AdvisorProvider {
	case "claude":
		key := cfg.AnthropicAPIKey
		if key == "" {
			if stored, err := credStore.AnthropicAPIKey(ctx); err == nil {
				key = stored
			}
		}
		adv, err := advisor.NewClaudeAdvisor(advisor.ClaudeAdvisorOptions{
			APIKey:     key,
			Model:      cfg.AnthropicModel,
			BaseURL:    cfg.AnthropicBaseURL,
			HTTPClient: httpClient,
			Registry:   registry,
			Fallback:   static,
			OnFallback: onFallback,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to configure claude advisor")
		}
		return adv
	case "openai":
		key := cfg.OpenAIAPIKey
		if key == "" {
			if stored, err := credStore.OpenAIAPIKey(ctx); err == nil {
				key = stored
			}
		}
		adv, err := advisor.NewOpenAIAdvisor(advisor.OpenAIAdvisorOptions{
			APIKey:     key,
			Org:        cfg.OpenAIOrg,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
			Registry:   registry,
			Fallback:   static,
			OnFallback: onFallback,
			OnWarning: func(msg string) {
				logger.Warn().Msg(msg)
			},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to configure openai advisor")
		}
		return adv
	default:
		return static
	}
}

func resolveWaveSpeedKey(ctx context.Context, cfg *infra.Config, credStore *credentials.Store, logger infra.Logger) string {
	if cfg.WaveSpeedAPIKey != "" {
		return cfg.WaveSpeedAPIKey
	}
	key, err := credStore.WaveSpeedAPIKey(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("api: failed to load wavespeed api key from store")
		return ""
	}
	if key == "" {
		logger.Warn().Msg("api: wavespeed api key missing, media jobs will produce synthetic assets")
	}
	return key
}
