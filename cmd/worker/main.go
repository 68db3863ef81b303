package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"promptstudio/internal/domain"
	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/imaging"
	"promptstudio/internal/infra"
	"promptstudio/internal/infra/credentials"
	"promptstudio/internal/providers/image"
	videoprovider "promptstudio/internal/providers/video"
	"promptstudio/internal/providers/wavespeed"
	"promptstudio/internal/sqlinline"
	"promptstudio/internal/storage"
)

const jobPollInterval = 2 * time.Second

type job struct {
	ID         string
	TaskType   string
	Provider   string
	Quantity   int
	Aspect     string
	Prompt     json.RawMessage
	Properties json.RawMessage
}

type jobProperties struct {
	Prompt    string `json:"prompt"`
	SourceURL string `json:"source_url"`
	Duration  int    `json:"duration"`
}

type jobWorker struct {
	ctx            context.Context
	runner         infra.SQLExecutor
	logger         infra.Logger
	httpClient     *http.Client
	imageProviders map[string]image.Generator
	videoProviders map[string]videoprovider.Generator
	store          *storage.FileStore
}

var errNoJobAvailable = errors.New("no job available")

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	apiKey := cfg.WaveSpeedAPIKey
	if apiKey == "" {
		credStore := credentials.NewStore(runner)
		stored, err := credStore.WaveSpeedAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load wavespeed api key from store")
		} else {
			apiKey = stored
		}
	}

	wsClient, err := wavespeed.NewClient(wavespeed.Options{
		APIKey:       apiKey,
		BaseURL:      cfg.WaveSpeedBaseURL,
		Logger:       &logger,
		PollInterval: cfg.WaveSpeedPollInterval,
		PollTimeout:  cfg.WaveSpeedPollTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure wavespeed client")
	}
	if wsClient.Offline() {
		logger.Warn().Msg("worker: wavespeed api key missing, producing synthetic assets")
	}

	worker := &jobWorker{
		ctx:        ctx,
		runner:     runner,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		imageProviders: map[string]image.Generator{
			"nano-banana": image.NewNanoBanana(wsClient),
			"seedream":    image.NewSeedream(wsClient),
		},
		videoProviders: map[string]videoprovider.Generator{
			"seeddance": videoprovider.NewSeedDance(wsClient),
		},
		store: store,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		j, err := w.claimJob()
		if err != nil {
			if !errors.Is(err, errNoJobAvailable) {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			select {
			case <-w.ctx.Done():
				return w.ctx.Err()
			case <-time.After(jobPollInterval):
			}
			continue
		}

		w.handleJob(j)
	}
}

func (w *jobWorker) claimJob() (job, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QWorkerClaimJob)
	var j job
	if err := row.Scan(&j.ID, &j.TaskType, &j.Provider, &j.Quantity, &j.Aspect, &j.Prompt, &j.Properties); err != nil {
		if infra.IsNoRows(err) {
			return job{}, errNoJobAvailable
		}
		return job{}, err
	}
	j.Prompt = append(json.RawMessage(nil), j.Prompt...)
	j.Properties = append(json.RawMessage(nil), j.Properties...)
	return j, nil
}

func (w *jobWorker) handleJob(j job) {
	w.logger.Info().Str("job_id", j.ID).Str("task_type", j.TaskType).Msg("worker: picked job")
	status, errMsg := domain.JobStatusSucceeded, ""
	if err := w.dispatch(j); err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: job failed")
		status, errMsg = domain.JobStatusFailed, err.Error()
	}
	if _, err := w.runner.Exec(w.ctx, sqlinline.QUpdateJobStatus, j.ID, string(status), errMsg); err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: update status failed")
	}
}

func (w *jobWorker) dispatch(j job) error {
	switch domain.TaskType(j.TaskType) {
	case domain.TaskTypeImageGen, domain.TaskTypeImageEdit:
		return w.processImageJob(j)
	case domain.TaskTypeVideoGen:
		return w.processVideoJob(j)
	default:
		return fmt.Errorf("unsupported job type %q", j.TaskType)
	}
}

func (w *jobWorker) decodeJob(j job) (promptspec.Spec, jobProperties, error) {
	var spec promptspec.Spec
	if len(j.Prompt) > 0 {
		if err := json.Unmarshal(j.Prompt, &spec); err != nil {
			return spec, jobProperties{}, fmt.Errorf("decode prompt spec: %w", err)
		}
	}
	spec.Normalize()

	var props jobProperties
	if len(j.Properties) > 0 {
		if err := json.Unmarshal(j.Properties, &props); err != nil {
			return spec, props, fmt.Errorf("decode job properties: %w", err)
		}
	}
	return spec, props, nil
}

func (w *jobWorker) processImageJob(j job) error {
	spec, props, err := w.decodeJob(j)
	if err != nil {
		return err
	}
	generator, ok := w.imageProviders[j.Provider]
	if !ok {
		return fmt.Errorf("image provider %q not configured", j.Provider)
	}

	prompt := props.Prompt
	if prompt == "" {
		prompt = image.BuildInstruction(spec)
	}
	req := image.GenerateRequest{
		Prompt:      prompt,
		Negative:    image.NegativeFor(spec),
		Quantity:    j.Quantity,
		AspectRatio: j.Aspect,
		RequestID:   j.ID,
	}
	if props.SourceURL != "" {
		src, err := image.FetchSource(w.ctx, w.httpClient, props.SourceURL)
		if err != nil {
			w.logger.Warn().Err(err).Str("job_id", j.ID).
				Msg("worker: source image prepare failed, passing url through")
			src = image.SourceImage{URL: props.SourceURL}
		}
		req.SourceImages = []image.SourceImage{src}
	}

	artifacts, err := generator.Generate(w.ctx, req)
	if err != nil {
		return fmt.Errorf("image generation: %w", err)
	}
	return w.persistArtifacts(j, "IMAGE", artifacts)
}

func (w *jobWorker) processVideoJob(j job) error {
	spec, props, err := w.decodeJob(j)
	if err != nil {
		return err
	}
	generator, ok := w.videoProviders[j.Provider]
	if !ok {
		return fmt.Errorf("video provider %q not configured", j.Provider)
	}
	if props.SourceURL == "" {
		return fmt.Errorf("video job missing source_url")
	}

	prompt := props.Prompt
	if prompt == "" {
		prompt = spec.Summary()
	}
	artifact, err := generator.Generate(w.ctx, videoprovider.GenerateRequest{
		Prompt:    prompt,
		ImageURL:  props.SourceURL,
		Duration:  props.Duration,
		RequestID: j.ID,
	})
	if err != nil {
		return fmt.Errorf("video generation: %w", err)
	}
	return w.persistArtifacts(j, "VIDEO", []wavespeed.Artifact{*artifact})
}

// persistArtifacts stores each artifact and records its asset row. A job
// only counts as succeeded when at least one artifact made it to storage.
func (w *jobWorker) persistArtifacts(j job, kind string, artifacts []wavespeed.Artifact) error {
	var stored int
	var lastErr error
	for _, artifact := range artifacts {
		if err := w.persistArtifact(j, kind, artifact); err != nil {
			w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: persist artifact failed")
			lastErr = err
			continue
		}
		stored++
	}
	if stored == 0 && lastErr != nil {
		return fmt.Errorf("no artifacts stored: %w", lastErr)
	}
	return nil
}

func (w *jobWorker) persistArtifact(j job, kind string, artifact wavespeed.Artifact) error {
	key, err := w.store.Write(w.ctx, artifact.StorageKey, artifact.Data)
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	props := map[string]any{
		"provider": j.Provider,
		"width":    artifact.Width,
		"height":   artifact.Height,
	}
	if kind == "IMAGE" {
		// Thumbnail failures only cost the gallery preview, not the job.
		if thumbKey, err := w.writeThumbnail(artifact); err != nil {
			w.logger.Warn().Err(err).Str("job_id", j.ID).Msg("worker: thumbnail render failed")
		} else {
			props["thumbnail_key"] = thumbKey
		}
	}
	if _, err := w.runner.Exec(w.ctx, sqlinline.QInsertAsset,
		j.ID, kind, key, artifact.MIME, int64(len(artifact.Data)), promptspec.MustMarshal(props)); err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (w *jobWorker) writeThumbnail(artifact wavespeed.Artifact) (string, error) {
	thumb, err := imaging.Thumbnail(artifact.Data, 256)
	if err != nil {
		return "", err
	}
	key := strings.TrimSuffix(artifact.StorageKey, path.Ext(artifact.StorageKey)) + "_thumb.jpg"
	return w.store.Write(w.ctx, key, thumb)
}
