// Command errers extracts the plain text of LaTeX documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/termfx/errers/internal/config"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		config.PrintFatal(stderr, err, false)
		return 2
	}

	root := newRootCmd(cfg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		config.PrintFatal(stderr, err, false)
		return 1
	}
	return 0
}

// exitError carries a status whose cause has already been reported.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd(cfg *config.Config) *cobra.Command {
	extract := newExtractCmd(cfg)

	root := &cobra.Command{
		Use:   "errers [flags] <file.tex|dir|glob>...",
		Short: "Extract the plain text of LaTeX documents",
		Long: `errers converts LaTeX documents to plain text by applying ordered
substitution rules: rules embedded in the document, then rules for its
classes, packages and bibliography style, then the core rules.

For each input, <stem>_errers.txt and <stem>_errers_times.csv are written
next to it or in --output-dir.

Examples:
  errers paper.tex                 # Extract one document
  errers --stdout paper.tex        # Print the text instead of writing it
  errers -w 4 'papers/**/*.tex'    # Four documents at a time
  errers runs                      # Recent extractions`,
		Version:       version,
		Args:          extract.Args,
		RunE:          extract.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().AddFlagSet(extract.Flags())

	root.AddCommand(extract, newRunsCmd(cfg), newRulesCmd(cfg))
	return root
}
