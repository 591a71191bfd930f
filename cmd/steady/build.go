package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/steady/internal/output/csvtable"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the unscored record table as CSV",
		Long: `build emits the perturbed corpus without classifying it: one row per
base text and variant, with empty prediction columns. Score it elsewhere and
feed it back with "steady metrics --table".`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
	addCorpusFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "output CSV path (default stdout)")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, false)
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
	records, err := newEngine(cfg, strategies, nil).Build(examples)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		return csvtable.WriteFile(path, records, len(cfg.Labels))
	}
	return csvtable.Write(cmd.OutOrStdout(), records, len(cfg.Labels))
}
