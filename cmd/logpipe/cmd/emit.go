package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/logpipe/config"
	"github.com/msto63/logpipe/core/log"
)

var (
	emitCategory string
	emitLevel    string
)

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Run a pipeline and log every stdin line as one entry",
	Long: `Builds the pipeline described by the configuration file and logs
every line read from stdin as one entry, then flushes and shuts the
pipeline down.

Example:
  journalctl -f | logpipe emit --category ingest --level warning`,
	RunE: runEmit,
}

func init() {
	rootCmd.AddCommand(emitCmd)

	emitCmd.Flags().StringVar(&emitCategory, "category", "logpipe.emit",
		"category name attached to the entries")
	emitCmd.Flags().StringVar(&emitLevel, "level", "information",
		"level the entries are logged at")
}

func runEmit(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(emitLevel)
	if err != nil {
		return err
	}

	pipeline, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	factory, err := pipeline.Build()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer factory.Close(ctx)

	logger := factory.CreateLogger(emitCategory)
	scanner := bufio.NewScanner(os.Stdin)
	var count int
	for scanner.Scan() {
		logger.Log(ctx, level, nil, "{line}", scanner.Text())
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	factory.Flush(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "logged %d entries\n", count)
	return nil
}
