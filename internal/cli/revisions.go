package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/domain"
)

func init() {
	revisionsCmd.Flags().BoolVarP(&revisionsAll, "all", "a", false, "List every review, including completed and future ones")
	addJSONFlag(revisionsCmd)

	revisionsCmd.AddCommand(revisionsDoneCmd)
	rootCmd.AddCommand(revisionsCmd)
}

var revisionsAll bool

var revisionsCmd = &cobra.Command{
	Use:     "revisions",
	Aliases: []string{"rev"},
	Short:   "Show reviews due today and overdue",
	Long: `Completing a task schedules three reviews of it: 3, 6 and 12 days later.
Without --all only open reviews that are due today or overdue are shown.`,
	Args: cobra.NoArgs,
	RunE: runRevisions,
}

var revisionsDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a review completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runRevisionsDone,
}

func runRevisions(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	st := newStyles(out)

	if revisionsAll {
		revs, err := d.Tracker.ListRevisions(cmd.Context(), true)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, revs)
		}
		if len(revs) == 0 {
			fmt.Fprintln(out, "No reviews scheduled. Complete a task to schedule some.")
			return nil
		}
		return revisionTable(out, revs)
	}

	due, overdue, err := d.Tracker.DueRevisions(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, map[string][]domain.Revision{"due": due, "overdue": overdue})
	}
	if len(due) == 0 && len(overdue) == 0 {
		fmt.Fprintln(out, "Nothing to review today.")
		return nil
	}

	if len(overdue) > 0 {
		fmt.Fprintln(out, st.bad.Render(fmt.Sprintf("Overdue (%d)", len(overdue))))
		if err := revisionTable(out, overdue); err != nil {
			return err
		}
	}
	if len(due) > 0 {
		if len(overdue) > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, st.heading.Render(fmt.Sprintf("Due today (%d)", len(due))))
		if err := revisionTable(out, due); err != nil {
			return err
		}
	}
	return nil
}

func revisionTable(out io.Writer, revs []domain.Revision) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tREVIEW\tSCHEDULED\tSTATUS")
	for _, r := range revs {
		status := "open"
		if r.Completed {
			status = "done"
		}
		fmt.Fprintf(w, "%s\t%s\t#%d\t%s\t%s\n", r.ID, r.OriginalTitle, r.RevisionNumber, r.ScheduledDate, status)
	}
	return w.Flush()
}

func runRevisionsDone(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.CompleteRevision(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Review %s completed\n", args[0])
	return nil
}
