package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/engine/perturb"
	"github.com/crimson-sun/steady/internal/logging"
	"github.com/crimson-sun/steady/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build, classify and score a perturbed corpus",
		Args:  cobra.NoArgs,
		RunE:  runEvaluation,
	}
	addCorpusFlags(cmd)
	addClassifierFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}

func runEvaluation(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	examples, err := loadExamples(cfg)
	if err != nil {
		return err
	}
	strategies, err := loadStrategies(cfg)
	if err != nil {
		return err
	}

	cls, err := openClassifier(cfg)
	if err != nil {
		return err
	}
	defer classifier.Close(cls)

	out, err := buildOutputs(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logging.For("pipeline"))}
	st, err := openStore(cfg)
	if err != nil {
		out.Close()
		return err
	}
	if st != nil {
		defer st.Close()
		opts = append(opts, pipeline.WithStore(st))
	}

	p := pipeline.New(newEngine(cfg, strategies, cls), out, pipeline.Info{
		Labels:          cfg.Labels.Names(),
		Strategies:      perturb.Names(strategies),
		VariantsPerBase: cfg.Perturb.VariantsPerBase,
		RunConfig:       runConfig(cfg),
	}, opts...)
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("steady: starting evaluation",
		"examples", len(examples), "variants", cfg.Perturb.VariantsPerBase, "classifier", cfg.Classifier.Provider)
	_, err = p.Run(ctx, examples)
	return err
}
