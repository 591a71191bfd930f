package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/config"
	"github.com/crimson-sun/steady/internal/engine"
	"github.com/crimson-sun/steady/internal/engine/canon"
	"github.com/crimson-sun/steady/internal/engine/corpus"
	"github.com/crimson-sun/steady/internal/engine/idgen"
	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/engine/perturb"
	"github.com/crimson-sun/steady/internal/logging"
	"github.com/crimson-sun/steady/internal/model"
	"github.com/crimson-sun/steady/internal/output"
	"github.com/crimson-sun/steady/internal/output/csvtable"
	"github.com/crimson-sun/steady/internal/output/file"
	"github.com/crimson-sun/steady/internal/output/multi"
	"github.com/crimson-sun/steady/internal/output/prom"
	"github.com/crimson-sun/steady/internal/output/stdout"
	"github.com/crimson-sun/steady/internal/output/webhook"
	"github.com/crimson-sun/steady/internal/source"
	"github.com/crimson-sun/steady/internal/store"
)

func loadExamples(cfg config.Config) ([]model.BaseExample, error) {
	opts := source.Options{Labels: cfg.Labels, Limit: cfg.Corpus.Limit}
	if cfg.Corpus.Path == "" {
		slog.Info("no corpus configured, using the built-in sample")
		return source.Sample(opts)
	}
	return source.Load(cfg.Corpus.Path, opts)
}

func loadStrategies(cfg config.Config) ([]perturb.Strategy, error) {
	var dict perturb.Dictionary
	if cfg.Perturb.SynonymsPath != "" {
		var err error
		if dict, err = perturb.LoadDictionary(cfg.Perturb.SynonymsPath); err != nil {
			return nil, err
		}
	}
	return perturb.Parse(cfg.Perturb.Strategies, dict)
}

func openClassifier(cfg config.Config) (classifier.Classifier, error) {
	if cfg.Classifier.Provider == "" {
		return nil, errors.New("no classifier configured (set STEADY_CLASSIFIER or --classifier)")
	}
	ctor, err := classifier.Get(cfg.Classifier.Provider)
	if err != nil {
		return nil, err
	}
	cls, err := ctor(cfg.ClassifierSettings())
	if err != nil {
		return nil, fmt.Errorf("create %s classifier: %w", cfg.Classifier.Provider, err)
	}
	return cls, nil
}

// newEngine wires the evaluation engine. cls may be nil for commands that
// only build or re-score tables.
func newEngine(cfg config.Config, strategies []perturb.Strategy, cls classifier.Classifier) *engine.Engine {
	return engine.New(
		corpus.New(idgen.New(idgen.Scheme(cfg.Corpus.IDScheme), cfg.Corpus.IDPrefix), logging.For("corpus")),
		strategies,
		cls,
		canon.New(cfg.Labels),
		metrics.New(cfg.Labels),
		engine.Config{
			VariantsPerBase: cfg.Perturb.VariantsPerBase,
			BatchSize:       cfg.Engine.BatchSize,
			Workers:         cfg.Engine.Workers,
		},
		logging.For("engine"),
	)
}

func openStore(cfg config.Config) (*store.Store, error) {
	if cfg.Output.StorePath == "" {
		return nil, nil
	}
	return store.Open(cfg.Output.StorePath)
}

// buildOutputs creates every configured report destination. stdout reports
// go to w.
func buildOutputs(cfg config.Config, w io.Writer) (output.Output, error) {
	verbosity, err := output.ParseVerbosity(cfg.Output.Verbosity)
	if err != nil {
		return nil, err
	}

	var outs []output.Output
	fail := func(err error) (output.Output, error) {
		for _, o := range outs {
			o.Close()
		}
		return nil, err
	}

	if cfg.Output.Stdout {
		outs = append(outs, stdout.NewWriter(w, verbosity, cfg.Output.Pretty))
	}
	if cfg.Output.CSVPath != "" {
		outs = append(outs, csvtable.New(cfg.Output.CSVPath))
	}
	if cfg.Output.LedgerPath != "" {
		ledger, err := file.New(cfg.Output.LedgerPath, verbosity, file.WithMaxSize(cfg.Output.LedgerMaxSize))
		if err != nil {
			return fail(err)
		}
		outs = append(outs, ledger)
	}
	if cfg.Output.MetricsPath != "" {
		var labels map[string]string
		if cfg.Classifier.Provider != "" {
			labels = map[string]string{"provider": cfg.Classifier.Provider}
		}
		gauges, err := prom.New(cfg.Output.MetricsPath, prom.WithConstLabels(labels))
		if err != nil {
			return fail(err)
		}
		outs = append(outs, gauges)
	}
	if cfg.Output.WebhookURL != "" {
		outs = append(outs, webhook.New(cfg.Output.WebhookURL, webhook.WithToken(cfg.Output.WebhookToken)))
	}
	return multi.New(outs...), nil
}

// runConfig is the configuration snapshot stored with a run, without
// credentials.
func runConfig(cfg config.Config) config.Config {
	cfg.Classifier.APIKey = ""
	cfg.Output.WebhookToken = ""
	return cfg
}
