package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/termfx/errers/db"
	"github.com/termfx/errers/internal/config"
	"github.com/termfx/errers/models"
)

func newRunsCmd(cfg *config.Config) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent extractions recorded in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := db.Connect(cfg.DBPath, false)
			if err != nil {
				return err
			}
			defer db.Close(store)

			runs, err := db.ListRuns(store, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Run history database: a SQLite path or a libsql:// URL.")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 lists all).")
	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Output runs in JSON format.")

	cmd.AddCommand(newRunsShowCmd(cfg))
	return cmd
}

func newRunsShowCmd(cfg *config.Config) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its slowest patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Connect(cfg.DBPath, false)
			if err != nil {
				return err
			}
			defer db.Close(store)

			run, err := db.GetRun(store, args[0], top)
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "t", 10, "Number of slowest patterns to show (0 shows all).")
	return cmd
}

func printRuns(w io.Writer, runs []models.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tDURATION\tLEFTOVERS\tDOCUMENT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.Duration().Round(time.Millisecond), r.LeftoverCount, r.Document)
	}
	tw.Flush()
}

func printRun(w io.Writer, r *models.Run) {
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  Document:  %s\n", r.Document)
	fmt.Fprintf(w, "  Backend:   %s\n", r.Backend)
	fmt.Fprintf(w, "  Options:   %s\n", r.Options)
	fmt.Fprintf(w, "  Status:    %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "  Error:     %s (%s)\n", r.Error, r.ErrorCode)
	}
	fmt.Fprintf(w, "  Duration:  %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Bytes:     %d → %d\n", r.InputBytes, r.OutputBytes)
	fmt.Fprintf(w, "  Patterns:  %d\n", r.PatternCount)
	if r.LeftoverCount > 0 {
		fmt.Fprintf(w, "  Leftovers: %d %s\n", r.LeftoverCount, r.Leftovers)
	}
	if len(r.Timings) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN (s)\tCALLS\tMATCHES\tLOCATION\tOBJECT")
	for _, t := range r.Timings {
		fmt.Fprintf(tw, "%.6f\t%d\t%d\t%s:%d %s\t%s\n",
			t.RunSeconds, t.RunCount, t.Matches, t.File, t.Line, t.Scope, t.Object)
	}
	tw.Flush()
}
