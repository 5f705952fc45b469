package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/cli"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate [CATALOG_PATH]",
	Short: "Validate the configuration and catalog",
	Long: `Load the configuration and the catalog and report every problem found.

The catalog path defaults to catalog.path from the configuration. All
integrity errors (unknown references, duplicate ids, invalid strategies)
are reported in one pass.

Examples:
  procure validate
  procure validate ./data --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format: text, json")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.Catalog.Path
	if len(args) == 1 {
		path = args[0]
	}

	out := cmd.OutOrStdout()
	store, err := catalog.Load(path)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	stats := store.Stats()

	if format == cli.FormatJSON {
		return (&cli.JSONFormatter{Indent: true}).FormatTo(out, stats)
	}
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "✓ Catalog valid: %s\n", stats.Source)
	return (&cli.TextFormatter{}).FormatTo(out, cli.Table{
		Headers: []string{"entity", "count"},
		Data: [][]string{
			{"users", fmt.Sprint(stats.Users)},
			{"departments", fmt.Sprint(stats.Departments)},
			{"products", fmt.Sprint(stats.Products)},
			{"suppliers", fmt.Sprint(stats.Suppliers)},
			{"offers", fmt.Sprint(stats.Offers)},
		},
	})
}
