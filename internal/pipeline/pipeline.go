package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/crimson-sun/steady/internal/engine"
	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/model"
	"github.com/crimson-sun/steady/internal/output"
)

// Evaluator is the engine surface the pipeline drives.
type Evaluator interface {
	Evaluate(ctx context.Context, examples []model.BaseExample) (engine.Result, error)
	Compute(records []model.Record) (metrics.Summary, error)
}

// Recorder persists runs. *store.Store satisfies it.
type Recorder interface {
	CreateRun(ctx context.Context, cfg any) (string, error)
	SaveRecords(ctx context.Context, runID string, records []model.Record) error
	SaveSummary(ctx context.Context, runID string, summary metrics.Summary) error
}

// Info describes the run for reports and the stored run config.
type Info struct {
	Labels          []string
	Strategies      []string // derived from the records when empty
	VariantsPerBase int
	RunConfig       any // stored with the run; nil stores null
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore persists every run's records and summary.
func WithStore(r Recorder) Option {
	return func(p *Pipeline) { p.store = r }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline connects an evaluator, an optional store, and an output.
type Pipeline struct {
	eval   Evaluator
	output output.Output
	store  Recorder
	info   Info
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline from the given components.
func New(eval Evaluator, out output.Output, info Info, opts ...Option) *Pipeline {
	p := &Pipeline{
		eval:   eval,
		output: out,
		info:   info,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run evaluates examples, persists the run and writes the report.
func (p *Pipeline) Run(ctx context.Context, examples []model.BaseExample) (output.Report, error) {
	res, err := p.eval.Evaluate(ctx, examples)
	if err != nil {
		return output.Report{}, fmt.Errorf("pipeline evaluate: %w", err)
	}
	return p.publish(ctx, "", res.Records, res.Summary)
}

// Recompute derives the summary for an already predicted record set and
// writes the report. A non-empty runID updates that stored run's summary
// instead of creating a new run.
func (p *Pipeline) Recompute(ctx context.Context, runID string, records []model.Record) (output.Report, error) {
	summary, err := p.eval.Compute(records)
	if err != nil {
		return output.Report{}, fmt.Errorf("pipeline compute: %w", err)
	}
	return p.publish(ctx, runID, records, summary)
}

func (p *Pipeline) publish(ctx context.Context, runID string, records []model.Record, summary metrics.Summary) (output.Report, error) {
	if p.store != nil {
		if runID == "" {
			id, err := p.store.CreateRun(ctx, p.info.RunConfig)
			if err != nil {
				return output.Report{}, fmt.Errorf("pipeline store: %w", err)
			}
			if err := p.store.SaveRecords(ctx, id, records); err != nil {
				return output.Report{}, fmt.Errorf("pipeline store: %w", err)
			}
			runID = id
		}
		if err := p.store.SaveSummary(ctx, runID, summary); err != nil {
			return output.Report{}, fmt.Errorf("pipeline store: %w", err)
		}
	}

	strategies := p.info.Strategies
	if len(strategies) == 0 {
		strategies = strategiesOf(records)
	}
	report := output.Report{
		RunID:           runID,
		CreatedAt:       p.now().UTC(),
		Labels:          p.info.Labels,
		Strategies:      strategies,
		VariantsPerBase: p.info.VariantsPerBase,
		Summary:         summary,
		Records:         records,
	}
	if err := p.output.Write(ctx, report); err != nil {
		return report, fmt.Errorf("pipeline output: %w", err)
	}
	p.logger.Info("report written", "run_id", runID, "groups", summary.Groups, "records", summary.Records)
	return report, nil
}

// strategiesOf lists the distinct non-base strategies in records, sorted.
func strategiesOf(records []model.Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		if r.IsBase() || r.Strategy == "" || seen[r.Strategy] {
			continue
		}
		seen[r.Strategy] = true
		out = append(out, r.Strategy)
	}
	sort.Strings(out)
	return out
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
