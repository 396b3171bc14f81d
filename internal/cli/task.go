package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/app/analytics"
	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Longer description")
	taskAddCmd.Flags().StringVarP(&taskCategory, "category", "c", "", "Category (empty means Uncategorized)")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", "medium", "Priority: high, medium or low")
	taskAddCmd.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline as YYYY-MM-DD")

	addJSONFlag(taskListCmd)

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskCompleteCmd, taskReopenCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}

var (
	taskDescription string
	taskCategory    string
	taskPriority    string
	taskDeadline    string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, complete and list tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add an open task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var taskCompleteCmd = &cobra.Command{
	Use:     "complete ID",
	Aliases: []string{"done"},
	Short:   "Mark a task done and schedule its reviews",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskComplete,
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen ID",
	Short: "Mark a completed task open again",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskReopen,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	in := tracker.TaskInput{
		Title:       strings.Join(args, " "),
		Description: taskDescription,
		Category:    taskCategory,
		Priority:    taskPriority,
	}
	if taskDeadline != "" {
		d := clock.ParseDate(taskDeadline)
		if !d.IsValid() {
			return fmt.Errorf("invalid deadline %q: want YYYY-MM-DD", taskDeadline)
		}
		in.Deadline = &d
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Tracker.CreateTask(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	tasks, err := d.Tracker.ListTasks(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks yet. Run 'momentum task add <title>' to create one.")
		return nil
	}

	st := newStyles(out)
	today := d.Tracker.Calendar().Today()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRIORITY\tDEADLINE\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Title,
			t.CategoryLabel(),
			domain.ParsePriority(string(t.Priority)),
			deadlineText(t),
			taskStatus(st, t, today),
		)
	}
	return w.Flush()
}

func deadlineText(t domain.Task) string {
	if d, ok := t.DeadlineDate(); ok {
		return d.String()
	}
	return "-"
}

func taskStatus(st styles, t domain.Task, today clock.Date) string {
	if t.Completed {
		return st.good.Render("done")
	}
	if d, ok := t.DeadlineDate(); ok && d.Before(today) {
		return st.bad.Render("overdue")
	}
	return "open"
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	t, revs, err := d.Tracker.CompleteTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(revs) == 0 {
		fmt.Fprintf(out, "%q was already completed\n", t.Title)
		return nil
	}

	days := make([]string, 0, len(revs))
	for _, r := range revs {
		days = append(days, analytics.ShortDay(r.ScheduledDate))
	}
	fmt.Fprintf(out, "Completed %q\n", t.Title)
	fmt.Fprintf(out, "Reviews scheduled: %s\n", strings.Join(days, ", "))
	return nil
}

func runTaskReopen(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Tracker.ReopenTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reopened %q\n", t.Title)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[0])
	return nil
}
