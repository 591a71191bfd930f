package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().String("store", "", "SQLite database for runs")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("no store configured (--store or STEADY_STORE)")
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSUMMARY")
	for _, r := range runs {
		summary := "-"
		if r.HasSummary {
			summary = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.CreatedAt.Format(time.RFC3339), summary)
	}
	return tw.Flush()
}
