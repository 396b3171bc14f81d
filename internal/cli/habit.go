package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/clock"
)

func init() {
	habitAddCmd.Flags().StringVarP(&habitDescription, "description", "d", "", "Longer description")
	habitAddCmd.Flags().StringVar(&habitColor, "color", "", "Display colour, e.g. #9ece6a")
	habitAddCmd.Flags().IntVarP(&habitTarget, "target", "t", 7, "Target completions per week")
	habitToggleCmd.Flags().StringVar(&habitDay, "day", "", "Day to toggle as YYYY-MM-DD (default today)")

	addJSONFlag(habitListCmd)

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitToggleCmd, habitRmCmd)
	rootCmd.AddCommand(habitCmd)
}

var (
	habitDescription string
	habitColor       string
	habitTarget      int
	habitDay         string
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Track recurring habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a habit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHabitAdd,
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with streaks and weekly progress",
	Args:    cobra.NoArgs,
	RunE:    runHabitList,
}

var habitToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Mark or unmark a habit for a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitToggle,
}

var habitRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a habit and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHabitRm,
}

func runHabitAdd(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	h, err := d.Tracker.CreateHabit(cmd.Context(), tracker.HabitInput{
		Name:            strings.Join(args, " "),
		Description:     habitDescription,
		Color:           habitColor,
		TargetFrequency: habitTarget,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created habit %s\n", h.ID)
	return nil
}

func runHabitList(cmd *cobra.Command, args []string) error {
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
		return writeJSON(out, r.Metrics.Habits)
	}
	if len(r.Metrics.Habits) == 0 {
		fmt.Fprintln(out, "No habits yet. Run 'momentum habit add <name>' to create one.")
		return nil
	}

	st := newStyles(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTREAK\tBEST\tTHIS WEEK\tPROGRESS\tTODAY")
	for _, h := range r.Metrics.Habits {
		today := "-"
		if h.DoneToday {
			today = st.good.Render("done")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d/%d\t%s\t%s\n",
			h.ID,
			h.Name,
			h.CurrentStreak,
			h.LongestStreak,
			h.CompletionsThisWeek, h.WeeklyTarget,
			bar(int(h.WeeklyProgress)),
			today,
		)
	}
	return w.Flush()
}

func runHabitToggle(cmd *cobra.Command, args []string) error {
	var day *clock.Date
	if habitDay != "" {
		dd := clock.ParseDate(habitDay)
		if !dd.IsValid() {
			return fmt.Errorf("invalid day %q: want YYYY-MM-DD", habitDay)
		}
		day = &dd
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	marked, err := d.Tracker.ToggleHabit(cmd.Context(), args[0], day)
	if err != nil {
		return err
	}

	label := d.Tracker.Calendar().Today().String()
	if day != nil {
		label = day.String()
	}
	state := "unmarked"
	if marked {
		state = "marked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Habit %s %s for %s\n", args[0], state, label)
	return nil
}

func runHabitRm(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.DeleteHabit(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed habit %s\n", args[0])
	return nil
}
