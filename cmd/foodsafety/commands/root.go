// Package commands implements the foodsafety CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "foodsafety",
		Short: "Food safety assistant - ask questions, ingest recalls, inspect data",
		Long: `foodsafety answers natural-language food safety questions grounded in the
local food, recall and fish advisory database. It can also refresh recall data
from openFDA and load state fish consumption advisories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Init(noColor, verbose)
			ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newIngestCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		ui.Error("%v", err)
		return err
	}
	return nil
}
