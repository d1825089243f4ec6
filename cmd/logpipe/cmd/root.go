package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logpipe",
	Short: "Structured multi-destination logging pipeline",
	Long: `logpipe drives a structured logging pipeline from a configuration
file: entries are filtered by severity, enriched with ambient scope
properties and fanned out to console, file, JSON-lines and embedded
SQLite destinations.

Commands:
  emit   - run a pipeline from a config file and log stdin lines
  query  - read entries back from a SQLite log database
  prune  - delete old entries from a SQLite log database`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "logpipe.toml",
		"pipeline configuration file (.toml, .yaml)")
}
