package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/steady/internal/logging"
	"github.com/crimson-sun/steady/internal/model"
	"github.com/crimson-sun/steady/internal/output/csvtable"
	"github.com/crimson-sun/steady/internal/pipeline"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Recompute the robustness summary for a scored table or stored run",
		Args:  cobra.NoArgs,
		RunE:  runMetrics,
	}
	addOutputFlags(cmd)
	cmd.Flags().String("table", "", "scored CSV table")
	cmd.Flags().String("run", "", "stored run id (requires --store)")
	cmd.MarkFlagsOneRequired("table", "run")
	cmd.MarkFlagsMutuallyExclusive("table", "run")
	return cmd
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	tablePath, _ := cmd.Flags().GetString("table")
	runID, _ := cmd.Flags().GetString("run")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	var records []model.Record
	switch {
	case tablePath != "":
		if records, err = csvtable.ReadFile(tablePath); err != nil {
			return err
		}
	case st == nil:
		return errors.New("--run requires a store (--store or STEADY_STORE)")
	default:
		if records, err = st.LoadRecords(cmd.Context(), runID); err != nil {
			return err
		}
	}

	out, err := buildOutputs(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logging.For("pipeline"))}
	if st != nil {
		opts = append(opts, pipeline.WithStore(st))
	}
	p := pipeline.New(newEngine(cfg, nil, nil), out, pipeline.Info{
		Labels:    cfg.Labels.Names(),
		RunConfig: runConfig(cfg),
	}, opts...)
	defer p.Close()

	_, err = p.Recompute(cmd.Context(), runID, records)
	return err
}
