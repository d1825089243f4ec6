package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/msto63/logpipe/core/log"
	"github.com/msto63/logpipe/sink/sqlite"
)

var (
	queryDB       string
	queryLevel    string
	queryCategory string
	queryLimit    int
	querySince    time.Duration
)

// Level badge styles, borrowed from the usual terminal color palette.
var (
	styleTimestamp = lipgloss.NewStyle().Faint(true)
	styleCategory  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	levelStyles    = map[log.Level]lipgloss.Style{
		log.LevelTrace:       lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		log.LevelDebug:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		log.LevelInformation: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		log.LevelWarning:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		log.LevelError:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		log.LevelCritical:    lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	}
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read entries back from a SQLite log database",
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryDB, "db", "", "path of the SQLite log database (required)")
	queryCmd.Flags().StringVar(&queryLevel, "level", "", "only entries at exactly this level")
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "only entries of this category")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 100, "maximum number of entries")
	queryCmd.Flags().DurationVar(&querySince, "since", 0, "only entries younger than this age")
	queryCmd.MarkFlagRequired("db")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := sqlite.New(queryDB, sqlite.Options{})
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	filter := sqlite.Filter{
		Category: queryCategory,
		Limit:    queryLimit,
	}
	if queryLevel != "" {
		level, err := log.ParseLevel(queryLevel)
		if err != nil {
			return err
		}
		filter.Level = level
		filter.HasLevel = true
	}
	if querySince > 0 {
		filter.StartTime = time.Now().UTC().Add(-querySince)
	}

	records, err := db.Query(ctx, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		e := &r.Entry
		style, ok := levelStyles[e.Level]
		if !ok {
			style = lipgloss.NewStyle()
		}
		fmt.Fprintf(out, "%s %s %s %s\n",
			styleTimestamp.Render(e.TimestampUtc.Format(time.RFC3339)),
			style.Render("["+e.Level.ShortString()+"]"),
			styleCategory.Render(e.Category+":"),
			e.Message)
		if e.Exception != nil {
			fmt.Fprintln(out, style.Render(e.Exception.String()))
		}
	}
	fmt.Fprintf(out, "%d entries\n", len(records))
	return nil
}
