package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/domain"
)

func init() {
	insightsCmd.Flags().IntVarP(&insightLimit, "limit", "n", 0, "Show at most N insights")
	addJSONFlag(reportCmd)
	addJSONFlag(insightsCmd)
	rootCmd.AddCommand(reportCmd, insightsCmd)
}

var insightLimit int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show productivity metrics and insights",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show ranked insights",
	Args:  cobra.NoArgs,
	RunE:  runInsights,
}

func runReport(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	r, err := d.Tracker.Report(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, r)
	}
	renderReport(out, newStyles(out), r)
	return nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	r, err := d.Tracker.Report(cmd.Context())
	if err != nil {
		return err
	}

	insights := limitInsights(r.Insights, insightLimit)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, insights)
	}
	renderInsights(out, newStyles(out), insights)
	return nil
}

// limitInsights trims to n; it never extends past the engine's own cap.
func limitInsights(in []domain.Insight, n int) []domain.Insight {
	if n > 0 && n < len(in) {
		return in[:n]
	}
	return in
}

// ─── Rendering ──────────────────────────────────────────────────────────────

func renderReport(out io.Writer, st styles, r domain.Report) {
	m := r.Metrics
	row := func(label, value string) {
		fmt.Fprintf(out, "  %s %s\n", st.label.Render(fmt.Sprintf("%-18s", label)), value)
	}

	fmt.Fprintln(out, st.heading.Render("Metrics"))
	row("Completion rate", fmt.Sprintf("%.1f%% (%d of %d)", m.CompletionRate, m.CompletedTasks, m.TotalTasks))
	row("Current streak", fmt.Sprintf("%d %s (longest %d)", m.CurrentStreak, plural(m.CurrentStreak, "day", "days"), m.LongestStreak))
	row("Weekly velocity", fmt.Sprintf("%d completed in 7 days", m.WeeklyVelocity))
	row("Avg per day", fmt.Sprintf("%.1f", m.AverageTasksPerDay))
	row("Best hour", fmt.Sprintf("%02d:00", m.BestWorkingHour))
	if m.MostProductiveCategory != "" {
		row("Top category", fmt.Sprintf("%s (%.0f%%)", m.MostProductiveCategory, m.MostProductiveCategoryRate))
	}
	row("Overdue", overdueText(st, m.OverdueCount))
	row("Due within 3 days", fmt.Sprintf("%d", m.UpcomingDeadlines))
	p := m.PriorityDistribution
	row("Priorities", fmt.Sprintf("%d high, %d medium, %d low", p.High, p.Medium, p.Low))

	if len(m.Categories) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, st.heading.Render("Categories"))
		for _, c := range m.Categories {
			fmt.Fprintf(out, "  %-18s %s %3.0f%% (%d/%d)\n", c.Name, bar(int(c.Rate)), c.Rate, c.Completed, c.Total)
		}
	}

	fmt.Fprintln(out)
	renderInsights(out, st, r.Insights)
}

func overdueText(st styles, n int) string {
	if n == 0 {
		return st.good.Render("0")
	}
	return st.bad.Render(fmt.Sprintf("%d", n))
}

func renderInsights(out io.Writer, st styles, insights []domain.Insight) {
	fmt.Fprintln(out, st.heading.Render("Insights"))
	if len(insights) == 0 {
		fmt.Fprintln(out, st.muted.Render("  Nothing to report yet. Add and complete a few tasks."))
		return
	}
	for _, in := range insights {
		badge := st.priority(in.Priority).Render("[" + strings.ToUpper(string(in.Priority)) + "]")
		fmt.Fprintf(out, "  %s %s\n", badge, in.Title)
		fmt.Fprintf(out, "      %s\n", in.Description)
		if in.Action != "" {
			fmt.Fprintf(out, "      %s\n", st.muted.Render("-> "+in.Action))
		}
	}
}
