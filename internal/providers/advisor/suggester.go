package advisor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"promptstudio/internal/collector"
	"promptstudio/internal/domain"
	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/infra"
	"promptstudio/internal/sqlinline"
	"promptstudio/internal/templates"
)

// SuggesterOptions wires an advisor into the batch collection loop.
// SQL is optional; when nil, runs are not persisted (CLI mode).
type SuggesterOptions struct {
	Advisor           Advisor
	Provider          string
	Registry          *templates.Registry
	SQL               infra.SQLExecutor
	Logger            *infra.Logger
	BatchSize         int
	AttemptMultiplier int
	RefusalMaxLen     int
	RefusalPhrases    []string
}

// Suggester runs the full suggestion pipeline: render batch prompts from the
// target model's template pack, collect items through the retry loop, fall
// back to canned suggestions when the vendor yields nothing, and record the
// run outcome.
type Suggester struct {
	advisor           Advisor
	static            *StaticAdvisor
	provider          string
	registry          *templates.Registry
	sql               infra.SQLExecutor
	logger            *infra.Logger
	batchSize         int
	attemptMultiplier int
	refusalMaxLen     int
	refusalPhrases    []string
}

func NewSuggester(opts SuggesterOptions) (*Suggester, error) {
	if opts.Advisor == nil {
		return nil, fmt.Errorf("suggester requires an advisor")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("suggester requires a template registry")
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	provider := opts.Provider
	if provider == "" {
		provider = staticProviderName
	}
	return &Suggester{
		advisor:           opts.Advisor,
		static:            NewStaticAdvisor(opts.Registry),
		provider:          provider,
		registry:          opts.Registry,
		sql:               opts.SQL,
		logger:            opts.Logger,
		batchSize:         batchSize,
		attemptMultiplier: opts.AttemptMultiplier,
		refusalMaxLen:     opts.RefusalMaxLen,
		refusalPhrases:    opts.RefusalPhrases,
	}, nil
}

// SuggestRequest asks for Count prompt suggestions for one subject and
// target model.
type SuggestRequest struct {
	Spec        promptspec.Spec
	TargetModel string
	Count       int
}

// Suggest collects up to req.Count suggestions. A short list, down to the
// canned fallback, is a normal outcome; only advisor transport faults
// surface as errors.
func (s *Suggester) Suggest(ctx context.Context, req SuggestRequest) (*domain.SuggestionRun, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("suggestion count must be positive")
	}
	pack := s.registry.ForModel(req.TargetModel)

	phrases := s.refusalPhrases
	if len(pack.RefusalPhrases) > 0 {
		phrases = append(append([]string{}, phrases...), pack.RefusalPhrases...)
	}

	attempts := 0
	generate := func(ctx context.Context, batchSize int, excluded map[string]struct{}) (collector.BatchResult, error) {
		attempts++
		raw, err := s.advisor.SuggestBatch(ctx, BatchRequest{
			Spec:           req.Spec,
			TargetModel:    pack.Model,
			BatchSize:      batchSize,
			ExcludedLabels: sortedKeys(excluded),
		})
		if err != nil {
			return collector.BatchResult{}, err
		}
		return collector.BatchResult{Raw: raw}, nil
	}

	fallbackUsed := false
	fallback := func(ctx context.Context) []collector.Item {
		fallbackUsed = true
		raw, err := s.static.SuggestBatch(ctx, BatchRequest{
			Spec:        req.Spec,
			TargetModel: pack.Model,
			BatchSize:   req.Count,
		})
		if err != nil {
			return nil
		}
		items, _ := collector.Extract(raw, collector.ExtractOptions{})
		return items
	}

	c, err := collector.New(collector.Options{
		TargetCount:       req.Count,
		BatchSize:         s.batchSize,
		AttemptMultiplier: s.attemptMultiplier,
		RefusalPhrases:    phrases,
		RefusalMaxLen:     s.refusalMaxLen,
		Keywords:          pack.Keywords,
		Fallback:          fallback,
		Logger:            s.logger,
	})
	if err != nil {
		return nil, err
	}

	items, err := c.Collect(ctx, generate)
	if err != nil {
		return nil, fmt.Errorf("collect suggestions: %w", err)
	}

	run := &domain.SuggestionRun{
		ID:           uuid.NewString(),
		TargetModel:  pack.Model,
		Provider:     s.provider,
		Requested:    req.Count,
		Collected:    len(items),
		Attempts:     attempts,
		FallbackUsed: fallbackUsed,
		Items:        make([]domain.Suggestion, 0, len(items)),
		CreatedAt:    time.Now().UTC(),
	}
	for _, item := range items {
		run.Items = append(run.Items, domain.Suggestion{Label: item.Label, Text: item.Body})
	}

	if s.sql != nil {
		if err := s.recordRun(ctx, run); err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("suggester: failed to record run")
		}
	}
	return run, nil
}

func (s *Suggester) recordRun(ctx context.Context, run *domain.SuggestionRun) error {
	_, err := s.sql.Exec(ctx, sqlinline.QInsertSuggestionRun,
		run.ID, run.TargetModel, run.Provider,
		run.Requested, run.Collected, run.Attempts, run.FallbackUsed,
		suggestionTexts(run.Items), run.CreatedAt,
	)
	return err
}

func suggestionTexts(items []domain.Suggestion) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Text)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
