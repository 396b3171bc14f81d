package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/domain"
)

func init() {
	progressCmd.Flags().StringVar(&progressPeriod, "period", "", "Only show one series: daily, weekly or monthly")
	addJSONFlag(progressCmd)
	rootCmd.AddCommand(progressCmd)
}

var progressPeriod string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Chart task completion by day, week and month",
	Long: `Show how many tasks created in each period have been completed.

  daily    the last 7 days
  weekly   the last 4 weeks, starting Sunday
  monthly  the last 6 calendar months`,
	Args: cobra.NoArgs,
	RunE: runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	series, err := progressSeries(progressPeriod)
	if err != nil {
		return err
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	p, err := d.Tracker.Progress(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, p)
	}

	st := newStyles(out)
	for i, s := range series {
		if i > 0 {
			fmt.Fprintln(out)
		}
		renderSeries(out, st, s.title, s.points(p))
	}
	return nil
}

type seriesView struct {
	title  string
	points func(domain.ProgressReport) []domain.ProgressPoint
}

var allSeries = map[string]seriesView{
	"daily":   {"Daily", func(p domain.ProgressReport) []domain.ProgressPoint { return p.Daily }},
	"weekly":  {"Weekly", func(p domain.ProgressReport) []domain.ProgressPoint { return p.Weekly }},
	"monthly": {"Monthly", func(p domain.ProgressReport) []domain.ProgressPoint { return p.Monthly }},
}

func progressSeries(period string) ([]seriesView, error) {
	if period == "" {
		return []seriesView{allSeries["daily"], allSeries["weekly"], allSeries["monthly"]}, nil
	}
	s, ok := allSeries[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q: want daily, weekly or monthly", period)
	}
	return []seriesView{s}, nil
}

// renderSeries prints one bar per bucket:
//
//	Jul 10   [=========>..........]  50%  1/2
func renderSeries(out io.Writer, st styles, title string, points []domain.ProgressPoint) {
	fmt.Fprintln(out, st.heading.Render(title))
	for _, pt := range points {
		b := bar(pt.Percentage)
		switch {
		case pt.Total == 0:
			b = st.muted.Render(b)
		case pt.Percentage >= 80:
			b = st.good.Render(b)
		case pt.Percentage < 50:
			b = st.warn.Render(b)
		}
		fmt.Fprintf(out, "  %-8s %s %3d%%  %d/%d\n", pt.Label, b, pt.Percentage, pt.Completed, pt.Total)
	}
}
