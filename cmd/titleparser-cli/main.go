// Package main provides the title-parser CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reportlib/titleparser/internal/config"
	"github.com/reportlib/titleparser/internal/observability"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool
	noColor bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "titleparser-cli",
	Short: "Market-research title parser CLI",
	Long: `titleparser-cli runs the C1-C5 title-extraction pipeline over
market-research report titles.

Use this tool to:
  - Parse a batch of titles from a file or stdin
  - Reload the pattern library on a running process without a restart
  - Validate a pattern library before publishing it
  - Inspect the most recent non-ok results from a prior run

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if jsonOut {
			logFormat = "json"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "titleparser-cli",
		})

		ui = NewUI(jsonOut, noColor || !IsTerminal())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReloadPatternsCmd())
	rootCmd.AddCommand(newValidateLibraryCmd())
	rootCmd.AddCommand(newLastErrorsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("titleparser-cli (dev)")
			return nil
		},
	}
}
