// Package prom exports report summaries as Prometheus gauges, written to a
// node_exporter textfile after every report.
package prom

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/output"
)

const defaultNamespace = "steady"

// Option configures a prom Output.
type Option func(*config)

type config struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace sets the metric name prefix. Default: "steady".
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithConstLabels attaches fixed labels (e.g. model name) to every series.
func WithConstLabels(l map[string]string) Option {
	return func(c *config) { c.constLabels = l }
}

// Output holds one registry of gauges reflecting the latest report.
// Undefined metrics are exported as NaN.
type Output struct {
	path string
	reg  *prometheus.Registry
	mu   sync.Mutex

	groups, records, flips                     prometheus.Gauge
	flipRate, baseAcc, overallAcc, degradation prometheus.Gauge
	errorConf, correctConf, confGap            prometheus.Gauge
	strategyAcc, variantAcc, labelFrac         *prometheus.GaugeVec
}

// New registers the gauges. When path is empty nothing is written to disk
// and the registry is only reachable through Gatherer.
func New(path string, opts ...Option) (*Output, error) {
	cfg := config{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(&cfg)
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace, Name: name, Help: help, ConstLabels: cfg.constLabels,
		})
	}
	vec := func(name, help, label string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.namespace, Name: name, Help: help, ConstLabels: cfg.constLabels,
		}, []string{label})
	}

	o := &Output{
		path:        path,
		reg:         prometheus.NewRegistry(),
		groups:      gauge("groups", "Number of base example groups evaluated."),
		records:     gauge("records", "Number of records evaluated."),
		flips:       gauge("flip_count", "Groups whose members disagree on the predicted label."),
		flipRate:    gauge("flip_rate", "Fraction of groups that flip."),
		baseAcc:     gauge("base_accuracy", "Accuracy over unperturbed records."),
		overallAcc:  gauge("overall_accuracy", "Accuracy over all records."),
		degradation: gauge("degradation", "Base accuracy minus overall accuracy."),
		errorConf:   gauge("error_confidence", "Mean confidence of incorrect predictions."),
		correctConf: gauge("correct_confidence", "Mean confidence of correct predictions."),
		confGap:     gauge("confidence_gap", "Error confidence minus correct confidence."),
		strategyAcc: vec("strategy_accuracy", "Accuracy over records produced by a strategy.", "strategy"),
		variantAcc:  vec("variant_accuracy", "Accuracy over records with a variant id.", "variant"),
		labelFrac:   vec("label_fraction", "Share of base records with a true label.", "label"),
	}
	for _, c := range []prometheus.Collector{
		o.groups, o.records, o.flips, o.flipRate, o.baseAcc, o.overallAcc, o.degradation,
		o.errorConf, o.correctConf, o.confGap, o.strategyAcc, o.variantAcc, o.labelFrac,
	} {
		if err := o.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register: %w", err)
		}
	}
	return o, nil
}

// Gatherer exposes the registry, e.g. for an HTTP handler.
func (o *Output) Gatherer() prometheus.Gatherer { return o.reg }

// Write updates every gauge from the report's summary and rewrites the
// textfile.
func (o *Output) Write(_ context.Context, report output.Report) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := report.Summary
	o.groups.Set(float64(s.Groups))
	o.records.Set(float64(s.Records))
	o.flips.Set(float64(s.FlipCount))
	o.flipRate.Set(value(s.FlipRate))
	o.baseAcc.Set(value(s.BaseAccuracy))
	o.overallAcc.Set(value(s.OverallAccuracy))
	o.degradation.Set(value(s.Degradation))
	o.errorConf.Set(value(s.ErrorConfidence))
	o.correctConf.Set(value(s.CorrectConfidence))
	o.confGap.Set(value(s.ConfidenceGap))

	o.strategyAcc.Reset()
	for _, sl := range s.Strategies {
		o.strategyAcc.WithLabelValues(sl.Name).Set(value(sl.Accuracy))
	}
	o.variantAcc.Reset()
	for _, sl := range s.Variants {
		o.variantAcc.WithLabelValues(sl.Name).Set(value(sl.Accuracy))
	}
	o.labelFrac.Reset()
	for _, lc := range s.Labels {
		o.labelFrac.WithLabelValues(lc.Label).Set(value(lc.Fraction))
	}

	if o.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.path, o.reg); err != nil {
		return fmt.Errorf("prom: write textfile: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

func value(p *float64) float64 {
	if v, ok := metrics.Value(p); ok {
		return v
	}
	return math.NaN()
}
