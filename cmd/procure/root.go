package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "procure",
	Short: "Procure - purchase-decision engine",
	Long: `Procure decides internal purchase requests.

For each request it:
  - Resolves the search term to catalog products
  - Checks the department's allowed categories
  - Checks and commits the department's monthly budget
  - Selects a supplier offer with the department's strategy
    (cheapest, fastest, or a price margin with a delivery limit)
  - Writes an audit record when the department requires one

The engine is served to orchestration clients as HTTP tools (procure run)
and can be driven directly from the command line.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	// An empty config path runs on defaults plus PROCUREMENT_* overrides.
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
