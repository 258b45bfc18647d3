package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/termfx/errers/internal/config"
	"github.com/termfx/errers/providers/catalog"
	"github.com/termfx/errers/providers/local"
	"github.com/termfx/errers/providers/standard"
)

func newRulesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [class|package|style name]...",
		Short: "List the rule providers for LaTeX classes, packages and styles",
		Long: `Lists the registered rule providers, one line per phase. With names,
only the providers for those classes, packages or bibliography styles are
listed. Local rules from --rules are included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			standard.Namespace()
			if cfg.LocalRules != "" {
				if _, err := local.Load(cfg.LocalRules); err != nil {
					return err
				}
			}

			var entries []catalog.Entry
			if len(args) == 0 {
				entries = catalog.Entries()
			}
			for _, name := range args {
				found := catalog.Lookup(name)
				if len(found) == 0 {
					return fmt.Errorf("no rules for %q", name)
				}
				entries = append(entries, found...)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAMESPACE\tSUBJECT\tPHASE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Namespace, e.Subject(), e.Phase)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&cfg.LocalRules, "rules", "r", cfg.LocalRules, "YAML file with local rules.")
	return cmd
}
