// Package engine orchestrates a robustness evaluation: build the perturbed
// corpus, classify every record, canonicalize the scores and aggregate the
// group-level metrics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/engine/canon"
	"github.com/crimson-sun/steady/internal/engine/corpus"
	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/engine/perturb"
	"github.com/crimson-sun/steady/internal/model"
)

var (
	ErrDuplicateKey      = errors.New("duplicate record key")
	ErrUnexpectedKey     = errors.New("classifier returned an unexpected key")
	ErrDuplicateResponse = errors.New("classifier returned a key twice")
	ErrMissingResponse   = errors.New("classifier returned no scores for a key")
)

// Config controls corpus size and classification fan-out.
type Config struct {
	VariantsPerBase int
	BatchSize       int // texts per classifier call
	Workers         int // concurrent classifier calls
}

// DefaultConfig mirrors the reference setup: three variants per base,
// batches of 32.
func DefaultConfig() Config {
	return Config{VariantsPerBase: 3, BatchSize: 32, Workers: 4}
}

// Result is the outcome of one evaluation run.
type Result struct {
	Records []model.Record
	Summary metrics.Summary
}

// Engine wires the builder, classifier, canonicalizer and aggregator.
type Engine struct {
	builder    *corpus.Builder
	strategies []perturb.Strategy
	classifier classifier.Classifier
	canon      *canon.Canonicalizer
	aggregator *metrics.Aggregator
	cfg        Config
	logger     *slog.Logger
}

// New creates an Engine with the provided components.
func New(b *corpus.Builder, strategies []perturb.Strategy, cls classifier.Classifier,
	c *canon.Canonicalizer, agg *metrics.Aggregator, cfg Config, logger *slog.Logger) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		builder:    b,
		strategies: strategies,
		classifier: cls,
		canon:      c,
		aggregator: agg,
		cfg:        cfg,
		logger:     logger,
	}
}

// Build constructs the unpredicted record set.
func (e *Engine) Build(examples []model.BaseExample) ([]model.Record, error) {
	return e.builder.Build(examples, e.cfg.VariantsPerBase, e.strategies)
}

// Classify returns a copy of records with predictions filled in. Batches run
// concurrently; responses are matched to records by key.
func (e *Engine) Classify(ctx context.Context, records []model.Record) ([]model.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	pos := make(map[string]int, len(records))
	for i, r := range records {
		k := r.Key()
		if _, dup := pos[k]; dup {
			return nil, fmt.Errorf("engine: %w: %s", ErrDuplicateKey, k)
		}
		pos[k] = i
	}

	out := make([]model.Record, len(records))
	copy(out, records)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	size := e.cfg.BatchSize
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batch := make([]classifier.Request, 0, end-start)
		for _, r := range records[start:end] {
			batch = append(batch, classifier.Request{Key: r.Key(), Text: r.Text})
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resps, err := e.classifier.Classify(gctx, batch)
			if err != nil {
				return fmt.Errorf("engine: classify batch at %d: %w", start, err)
			}
			e.logger.Debug("batch classified", "offset", start, "size", len(batch))
			return e.attach(out, pos, batch, resps)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// attach canonicalizes a batch's responses into out. Batches cover disjoint
// positions, so concurrent calls never touch the same element.
func (e *Engine) attach(out []model.Record, pos map[string]int, batch []classifier.Request, resps []classifier.Response) error {
	pending := make(map[string]bool, len(batch))
	for _, r := range batch {
		pending[r.Key] = true
	}
	for _, resp := range resps {
		open, ok := pending[resp.Key]
		switch {
		case !ok:
			return fmt.Errorf("engine: %w: %s", ErrUnexpectedKey, resp.Key)
		case !open:
			return fmt.Errorf("engine: %w: %s", ErrDuplicateResponse, resp.Key)
		}
		pending[resp.Key] = false

		i := pos[resp.Key]
		rec, err := e.canon.Canonicalize(out[i], resp.Scores)
		if err != nil {
			return fmt.Errorf("engine: %w", err)
		}
		out[i] = rec
	}
	for _, r := range batch {
		if pending[r.Key] {
			return fmt.Errorf("engine: %w: %s", ErrMissingResponse, r.Key)
		}
	}
	return nil
}

// Compute aggregates the metrics for a predicted record set.
func (e *Engine) Compute(records []model.Record) (metrics.Summary, error) {
	return e.aggregator.Compute(records)
}

// Evaluate runs build, classify and compute end to end.
func (e *Engine) Evaluate(ctx context.Context, examples []model.BaseExample) (Result, error) {
	records, err := e.Build(examples)
	if err != nil {
		return Result{}, err
	}
	records, err = e.Classify(ctx, records)
	if err != nil {
		return Result{}, err
	}
	summary, err := e.Compute(records)
	if err != nil {
		return Result{}, err
	}
	e.logger.Info("evaluation complete",
		"groups", summary.Groups, "records", summary.Records, "flips", summary.FlipCount)
	return Result{Records: records, Summary: summary}, nil
}
