package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/daemon"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/snapshot"
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Snapshot file (.json, .yaml or - for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeNow, "now", "", "Analyze as of this RFC 3339 instant instead of the current time")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 0, "Show at most N insights")
	_ = analyzeCmd.MarkFlagRequired("file")
	addJSONFlag(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

var (
	analyzeFile  string
	analyzeNow   string
	analyzeLimit int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute metrics and insights for a snapshot file",
	Long: `Analyze a snapshot of tasks and habits without touching the record store.

The snapshot holds "tasks" and "habits" arrays in the same shape the API
returns. Malformed timestamps are tolerated and simply not counted.`,
	Example: `  momentum analyze -f export.json
  momentum analyze -f week.yaml --now 2025-07-10T18:00:00Z --json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c := newClock()
	if analyzeNow != "" {
		at, ok := clock.ParseInstant(analyzeNow).Time()
		if !ok {
			return fmt.Errorf("invalid --now %q: want RFC 3339", analyzeNow)
		}
		c = clock.NewFixed(at)
	}

	eng, err := daemon.NewEngine(cfg, c)
	if err != nil {
		return err
	}

	snap, err := readSnapshot(cmd)
	if err != nil {
		return err
	}

	r := eng.Recompute(snap)
	r.Insights = limitInsights(r.Insights, analyzeLimit)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, r)
	}
	st := newStyles(out)
	fmt.Fprintf(out, "%s %d %s, %d %s as of %s\n\n",
		st.muted.Render("Analyzed"),
		len(snap.Tasks), plural(len(snap.Tasks), "task", "tasks"),
		len(snap.Habits), plural(len(snap.Habits), "habit", "habits"),
		r.GeneratedAt.Format(time.RFC3339))
	renderReport(out, st, r)
	return nil
}

func readSnapshot(cmd *cobra.Command) (domain.Snapshot, error) {
	if analyzeFile == "-" {
		return snapshot.Read(cmd.InOrStdin())
	}
	return snapshot.Load(analyzeFile)
}
