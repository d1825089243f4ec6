package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/logpipe/sink/sqlite"
)

var (
	pruneDB        string
	pruneOlderThan time.Duration
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old entries from a SQLite log database",
	RunE:  runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneDB, "db", "", "path of the SQLite log database (required)")
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour,
		"delete entries older than this age")
	pruneCmd.MarkFlagRequired("db")
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := sqlite.New(pruneDB, sqlite.Options{})
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	deleted, err := db.Prune(ctx, pruneOlderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)
	return nil
}
