package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/steady/internal/config"
	"github.com/crimson-sun/steady/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "steady",
		Short: "Measure classifier robustness under text perturbations",
		Long: `steady builds a perturbed evaluation corpus from labeled examples,
classifies every base text and variant, and reports how often predictions
flip and how much accuracy degrades.

Settings come from STEADY_* environment variables, optionally overlaid by a
YAML file (--config), then by command-line flags.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML configuration file")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "emit logs as JSON on stderr")

	root.AddCommand(newRunCmd(), newBuildCmd(), newMetricsCmd(), newRunsCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the steady version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "steady %s\n", config.Version)
		},
	}
}

// loadConfig resolves configuration (env, then --config, then flags),
// initializes logging and validates the result. Commands that never
// classify pass withClassifier=false so classifier settings are ignored.
func loadConfig(cmd *cobra.Command, withClassifier bool) (config.Config, error) {
	cfg := config.Load()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	applyFlags(cmd, &cfg)
	if !withClassifier {
		cfg.Classifier.Provider = ""
	}

	jsonLogs, _ := cmd.Flags().GetBool("log-json")
	logging.Init(jsonLogs, logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over cfg. Flags a command does not
// define are never Changed.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	flag := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	str("log-level", &cfg.LogLevel)

	str("corpus", &cfg.Corpus.Path)
	num("limit", &cfg.Corpus.Limit)
	str("id-scheme", &cfg.Corpus.IDScheme)
	str("id-prefix", &cfg.Corpus.IDPrefix)

	num("variants", &cfg.Perturb.VariantsPerBase)
	if f.Changed("strategies") {
		cfg.Perturb.Strategies, _ = f.GetStringSlice("strategies")
	}
	str("synonyms", &cfg.Perturb.SynonymsPath)

	str("classifier", &cfg.Classifier.Provider)
	str("model", &cfg.Classifier.ModelPath)
	str("vocab", &cfg.Classifier.VocabPath)
	str("head", &cfg.Classifier.HeadPath)
	str("endpoint", &cfg.Classifier.Endpoint)
	str("predictions", &cfg.Classifier.PredictionPath)

	num("batch-size", &cfg.Engine.BatchSize)
	num("workers", &cfg.Engine.Workers)

	str("store", &cfg.Output.StorePath)
	str("csv", &cfg.Output.CSVPath)
	str("ledger", &cfg.Output.LedgerPath)
	str("metrics-file", &cfg.Output.MetricsPath)
	str("webhook", &cfg.Output.WebhookURL)
	str("verbosity", &cfg.Output.Verbosity)
	flag("pretty", &cfg.Output.Pretty)
	flag("stdout", &cfg.Output.Stdout)
}

func addCorpusFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("corpus", "", "corpus file (.jsonl, .json, .csv); empty uses the built-in sample")
	f.Int("limit", 0, "use only the first N examples")
	f.String("id-scheme", "", "base id scheme: index or hash")
	f.String("id-prefix", "", "prefix for positional base ids")
	f.Int("variants", 0, "perturbed variants per example")
	f.StringSlice("strategies", nil, "perturbation strategies, applied round-robin")
	f.String("synonyms", "", "YAML synonym dictionary")
}

func addClassifierFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("classifier", "", "classifier provider: onnx, http, replay")
	f.String("model", "", "ONNX model path")
	f.String("vocab", "", "WordPiece vocabulary path")
	f.String("head", "", "safetensors classification head")
	f.String("endpoint", "", "HTTP inference endpoint")
	f.String("predictions", "", "NDJSON file of precomputed scores")
	f.Int("batch-size", 0, "texts per classifier call")
	f.Int("workers", 0, "concurrent classifier calls")
}

func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("store", "", "SQLite database for runs")
	f.String("csv", "", "write the scored record table to this CSV file")
	f.String("ledger", "", "append reports to this NDJSON file")
	f.String("metrics-file", "", "write Prometheus gauges to this textfile")
	f.String("webhook", "", "POST reports to this URL")
	f.String("verbosity", "", "report detail: minimal, standard, full")
	f.Bool("pretty", false, "indent JSON printed to stdout")
	f.Bool("stdout", true, "print the report to stdout")
}
