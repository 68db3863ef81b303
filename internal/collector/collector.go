package collector

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"promptstudio/internal/infra"
)

// BatchResult is the outcome of one generator call: the raw text produced by
// the external service, plus an explicit refusal flag for generators that can
// detect a refusal themselves. A refusal must never be reported as an error.
type BatchResult struct {
	Raw     string
	Refused bool
}

// Item is one discrete unit of text recovered from a batch, with the optional
// category label the generator attached to it.
type Item struct {
	Label string
	Body  string
}

// BatchFunc wraps one external call that may produce zero or more items.
// Any opaque context the generator needs (subject matter, target model) is
// captured by the closure. The excluded set carries labels already consumed,
// so the generator can ask for diversity; honoring it is advisory.
// Errors returned here are treated as genuine faults and abort the run.
type BatchFunc func(ctx context.Context, batchSize int, excluded map[string]struct{}) (BatchResult, error)

// Options tunes one Collector. The attempt multiplier, refusal phrase list
// and short-response threshold are deliberately configuration rather than
// constants: they are empirical values tuned per vendor.
type Options struct {
	TargetCount       int
	BatchSize         int
	AttemptMultiplier int
	// MaxAttempts overrides the computed ceil(target/batch)*multiplier budget
	// when positive.
	MaxAttempts    int
	RefusalPhrases []string
	RefusalMaxLen  int
	MinItemLen     int
	Keywords       []string
	// Fallback supplies canned items when a run ends with nothing collected.
	Fallback func(ctx context.Context) []Item
	Logger   *infra.Logger
}

const (
	defaultAttemptMultiplier = 2
	defaultRefusalMaxLen     = 200
	defaultMinItemLen        = 24
)

var defaultRefusalPhrases = []string{
	"cannot generate",
	"cannot assist",
	"cannot create",
	"i apologize",
	"not able to",
}

// ErrBatchSize indicates the collector was configured without a usable batch size.
var ErrBatchSize = errors.New("collector: batch size must be positive")

// Collector assembles a best-effort ordered list of up to TargetCount items
// from an unreliable, possibly-refusing generator of free-text batches.
// Each Collect call owns its own state, so independent runs may proceed
// concurrently as long as the BatchFunc itself is reentrant.
type Collector struct {
	target         int
	batchSize      int
	maxAttempts    int
	refusalPhrases []string
	refusalMaxLen  int
	extract        ExtractOptions
	fallback       func(ctx context.Context) []Item
	logger         *infra.Logger
}

// New validates the options and applies defaults.
func New(opts Options) (*Collector, error) {
	if opts.BatchSize <= 0 {
		return nil, ErrBatchSize
	}
	multiplier := opts.AttemptMultiplier
	if multiplier <= 0 {
		multiplier = defaultAttemptMultiplier
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 && opts.TargetCount > 0 {
		batches := (opts.TargetCount + opts.BatchSize - 1) / opts.BatchSize
		maxAttempts = batches * multiplier
	}
	refusalMaxLen := opts.RefusalMaxLen
	if refusalMaxLen <= 0 {
		refusalMaxLen = defaultRefusalMaxLen
	}
	phrases := opts.RefusalPhrases
	if len(phrases) == 0 {
		phrases = defaultRefusalPhrases
	}
	minItemLen := opts.MinItemLen
	if minItemLen <= 0 {
		minItemLen = defaultMinItemLen
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Collector{
		target:         opts.TargetCount,
		batchSize:      opts.BatchSize,
		maxAttempts:    maxAttempts,
		refusalPhrases: phrases,
		refusalMaxLen:  refusalMaxLen,
		extract:        ExtractOptions{MinItemLen: minItemLen, Keywords: opts.Keywords},
		fallback:       opts.Fallback,
		logger:         logger,
	}, nil
}

// Collect loops request/parse/append until TargetCount items are accumulated
// or the attempt budget runs out. Refusals and unparseable batches consume an
// attempt and contribute nothing; returning fewer than TargetCount items,
// including zero, is a normal outcome, not an error. Only errors raised by
// the generator itself propagate.
func (c *Collector) Collect(ctx context.Context, generate BatchFunc) ([]Item, error) {
	if c.target <= 0 {
		return nil, nil
	}

	items := make([]Item, 0, c.target)
	excluded := make(map[string]struct{})
	attempts := 0

	for len(items) < c.target && attempts < c.maxAttempts {
		remaining := c.target - len(items)
		request := c.batchSize
		if remaining < request {
			request = remaining
		}

		result, err := generate(ctx, request, excluded)
		attempts++
		if err != nil {
			return nil, err
		}

		if c.isRefusal(result) {
			c.logger.Warn().
				Int("attempt", attempts).
				Int("collected", len(items)).
				Msg("collector: batch refused")
			continue
		}

		parsed, strategy := Extract(result.Raw, c.extract)
		if len(parsed) == 0 {
			c.logger.Warn().
				Int("attempt", attempts).
				Str("preview", preview(result.Raw, 120)).
				Msg("collector: no items recovered from batch")
			continue
		}

		for _, item := range parsed {
			if label := strings.ToLower(strings.TrimSpace(item.Label)); label != "" {
				excluded[label] = struct{}{}
			}
			if len(items) < c.target {
				items = append(items, item)
			}
		}
		c.logger.Debug().
			Int("attempt", attempts).
			Int("batch_items", len(parsed)).
			Int("collected", len(items)).
			Str("strategy", strategy).
			Msg("collector: batch parsed")
	}

	if len(items) == 0 && c.fallback != nil {
		items = c.fallback(ctx)
		if len(items) > c.target {
			items = items[:c.target]
		}
		c.logger.Warn().
			Int("attempts", attempts).
			Int("fallback_items", len(items)).
			Msg("collector: nothing collected, using fallback items")
	}

	return items, nil
}

// MaxAttempts exposes the computed attempt budget, mostly for reporting.
func (c *Collector) MaxAttempts() int {
	return c.maxAttempts
}

func (c *Collector) isRefusal(result BatchResult) bool {
	if result.Refused {
		return true
	}
	raw := strings.TrimSpace(result.Raw)
	if raw == "" || len(raw) >= c.refusalMaxLen {
		return false
	}
	lower := strings.ToLower(raw)
	for _, phrase := range c.refusalPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func preview(raw string, limit int) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= limit {
		return raw
	}
	return raw[:limit] + "..."
}
