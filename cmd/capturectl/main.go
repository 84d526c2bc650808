package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	payloadPath string
	logLevel    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "capturectl",
		Short: "Run and inspect the packet capture pipeline outside the webhook server",
		Long: `capturectl drives the same capture pipeline the webhook server
exposes. Use it to replay a saved alert payload, check what the extractor
reads from it, or print the effective configuration.`,
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full capture pipeline for an alert payload",
		RunE:  runPipeline,
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the alert context extracted from a payload without calling Azure",
		RunE:  runExtract,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE:  runConfig,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults to CONFIG_PATH or the search path)")
	for _, c := range []*cobra.Command{runCmd, extractCmd} {
		c.Flags().StringVarP(&payloadPath, "payload", "p", "", "alert payload file, '-' for stdin")
		_ = c.MarkFlagRequired("payload")
	}
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd, extractCmd, configCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
