package cmd

import (
	"encoding/json"
	"fmt"
	"jntuh-results-backend/internal/application"
	"jntuh-results-backend/internal/components/chrono"
	"jntuh-results-backend/internal/components/telemetry"
	libtelemetry "jntuh-results-backend/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	asJSON     bool
	verbose    bool
)

var app application.Application

var rootCmd = &cobra.Command{
	Use:   "results-cli",
	Short: "results-cli looks up JNTUH results straight from the results portal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		libtelemetry.InitSlog(verbose)

		cfg, err := application.ReadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		app, err = application.New(cfg, chrono.NewStandardTime(), telemetry.SlogAPI{})
		if err != nil {
			return fmt.Errorf("init application: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the configuration file.")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of tables.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
