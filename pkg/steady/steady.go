package steady

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/engine"
	"github.com/crimson-sun/steady/internal/engine/canon"
	"github.com/crimson-sun/steady/internal/engine/corpus"
	"github.com/crimson-sun/steady/internal/engine/idgen"
	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/engine/perturb"
	"github.com/crimson-sun/steady/internal/model"

	// Register classifier adapters for OpenClassifier.
	_ "github.com/crimson-sun/steady/internal/classifier/httpclassifier"
	_ "github.com/crimson-sun/steady/internal/classifier/onnx"
	_ "github.com/crimson-sun/steady/internal/classifier/replay"
)

// Evaluator runs perturbation robustness evaluations against one
// classifier. Safe for concurrent use.
type Evaluator struct {
	engine *engine.Engine
	labels model.LabelSet
}

// New creates an Evaluator for cls.
func New(cls Classifier, opts ...Option) (*Evaluator, error) {
	if cls == nil {
		return nil, fmt.Errorf("steady: classifier is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.labels.Validate(); err != nil {
		return nil, fmt.Errorf("steady: %w", err)
	}
	if o.variants < 0 {
		return nil, fmt.Errorf("steady: %w", corpus.ErrNegativeVariants)
	}

	var dict perturb.Dictionary
	if o.synonyms != nil {
		dict = perturb.NewDictionary(o.synonyms)
	}
	strategies, err := perturb.Parse(o.strategies, dict)
	if err != nil {
		return nil, fmt.Errorf("steady: %w", err)
	}
	if o.variants > 0 && len(strategies) == 0 {
		return nil, fmt.Errorf("steady: %w", corpus.ErrNoStrategies)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	eng := engine.New(
		corpus.New(idgen.New(o.idScheme, o.idPrefix), logger),
		strategies,
		cls,
		canon.New(o.labels),
		metrics.New(o.labels),
		engine.Config{VariantsPerBase: o.variants, BatchSize: o.batchSize, Workers: o.workers},
		logger,
	)
	return &Evaluator{engine: eng, labels: o.labels}, nil
}

// Labels returns the configured classes in canonical order.
func (e *Evaluator) Labels() []Class {
	return fromLabelSet(e.labels)
}

// Build returns the unscored record table for examples: per example the
// base record followed by its variants.
func (e *Evaluator) Build(examples []Example) ([]Record, error) {
	records, err := e.engine.Build(toExamples(examples))
	if err != nil {
		return nil, fmt.Errorf("steady: %w", err)
	}
	return fromRecords(records), nil
}

// Evaluate builds the perturbed corpus for examples, classifies every
// record and computes the robustness summary.
func (e *Evaluator) Evaluate(ctx context.Context, examples []Example) (Result, error) {
	res, err := e.engine.Evaluate(ctx, toExamples(examples))
	if err != nil {
		return Result{}, fmt.Errorf("steady: %w", err)
	}
	return Result{Records: fromRecords(res.Records), Summary: res.Summary}, nil
}

// Summarize computes the summary for records that already carry
// predictions, e.g. a table scored elsewhere.
func (e *Evaluator) Summarize(records []Record) (Summary, error) {
	s, err := e.engine.Compute(toRecords(records))
	if err != nil {
		return Summary{}, fmt.Errorf("steady: %w", err)
	}
	return s, nil
}

// ClassifierConfig holds settings for the built-in classifier adapters.
type ClassifierConfig = classifier.Config

// OpenClassifier creates a built-in classifier adapter: "onnx" (local
// model), "http" (inference endpoint) or "replay" (precomputed scores).
// Call CloseClassifier when done.
func OpenClassifier(cfg ClassifierConfig) (Classifier, error) {
	ctor, err := classifier.Get(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("steady: %w", err)
	}
	cls, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("steady: %w", err)
	}
	return cls, nil
}

// CloseClassifier releases resources held by cls, if any.
func CloseClassifier(cls Classifier) error {
	return classifier.Close(cls)
}
