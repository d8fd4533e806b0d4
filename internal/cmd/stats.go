package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/mindnode/internal/analytics"
	"github.com/Iron-Ham/mindnode/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats [board]",
	Short: "Show task progress across boards",
	Long: `Display task progress statistics.

Without a board, shows totals across all boards and a per-board breakdown.
Only task nodes are counted; a task without a status counts as todo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List tasks across boards by date",
	Args:  cobra.NoArgs,
	RunE:  runTimeline,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Group dated tasks by day",
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

var (
	statsJSON    bool // Output as JSON
	timelineJSON bool
	calendarJSON bool
)

// now is the clock used for overdue checks.
var now = time.Now

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "Output as JSON")
	calendarCmd.Flags().BoolVar(&calendarJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd, timelineCmd, calendarCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		b, err := a.store.Resolve(args[0])
		if err != nil {
			return err
		}
		s := analytics.ForBoard(&b)
		if statsJSON {
			return writeJSON(out, s)
		}
		printBoardStats(out, s)
		return nil
	}

	g := analytics.Global(a.store.Boards())
	if statsJSON {
		return writeJSON(out, g)
	}
	printStatsText(out, g)
	return nil
}

func printStatsText(out io.Writer, g analytics.GlobalStats) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("PROGRESS"))
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "Boards: %d\n", g.TotalBoards)
	fmt.Fprintf(out, "Tasks:  %d\n", g.TotalTasks)
	fmt.Fprintf(out, "%s %d%%\n", progressBar(g.CompletionRate, 30), g.CompletionRate)
	fmt.Fprintln(out)

	fmt.Fprintln(out, titleStyle.Render("BY STATUS"))
	fmt.Fprintln(out, strings.Repeat("─", 50))
	dist := g.Distribution()
	for _, st := range []model.Status{model.StatusComplete, model.StatusInProgress, model.StatusTodo} {
		fmt.Fprintf(out, "%s %d\n", statusStyle(st).Render(fmt.Sprintf("%-12s", st)), dist[st])
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, titleStyle.Render("BOARDS"))
	fmt.Fprintln(out, strings.Repeat("─", 50))
	if len(g.Boards) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No boards yet. Create one with 'mindnode board create'."))
	}
	for _, s := range g.Boards {
		fmt.Fprintf(out, "%-30s %s %3d%% %s\n",
			truncate(s.BoardName, 30), progressBar(s.Progress, 10), s.Progress,
			mutedStyle.Render(fmt.Sprintf("(%d/%d)", s.Completed, s.Total)))
	}
	fmt.Fprintln(out)
}

func printBoardStats(out io.Writer, s analytics.BoardStats) {
	fmt.Fprintln(out, titleStyle.Render(s.BoardName))
	fmt.Fprintf(out, "%s %d%%\n", progressBar(s.Progress, 30), s.Progress)
	fmt.Fprintf(out, "%s %d  %s %d  %s %d  %s\n",
		statusStyle(model.StatusComplete).Render("complete"), s.Completed,
		statusStyle(model.StatusInProgress).Render("in-progress"), s.InProgress,
		statusStyle(model.StatusTodo).Render("todo"), s.Todo,
		mutedStyle.Render(fmt.Sprintf("(%d tasks)", s.Total)))
}

func runTimeline(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	entries := analytics.Timeline(a.store.Boards(), now())
	out := cmd.OutOrStdout()
	if timelineJSON {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No tasks"))
		return nil
	}
	width := terminalWidth(100)
	for _, e := range entries {
		printEntry(out, e, width, true)
	}
	return nil
}

func printEntry(out io.Writer, e analytics.Entry, width int, withDate bool) {
	date := "          "
	if e.Node.DateTime != nil {
		if withDate {
			date = e.Node.DateTime.Local().Format(analytics.DayFormat)
		} else {
			date = e.Node.DateTime.Local().Format("15:04     ")
		}
	}
	status := e.Node.EffectiveStatus()
	dateStyle := mutedStyle
	if e.Overdue {
		dateStyle = errorStyle
	}
	board := mutedStyle.Render("[" + e.BoardName + "]")
	content := truncate(firstLine(e.Node.Content), max(width-len(e.BoardName)-30, 10))
	fmt.Fprintf(out, "%s %s %s %s\n",
		dateStyle.Render(date),
		statusStyle(status).Render(fmt.Sprintf("%-11s", status)),
		content, board)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	days := analytics.Calendar(a.store.Boards(), now())
	out := cmd.OutOrStdout()
	if calendarJSON {
		return writeJSON(out, days)
	}
	if len(days) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No dated tasks"))
		return nil
	}
	width := terminalWidth(100)
	for _, d := range days {
		day, _ := time.ParseInLocation(analytics.DayFormat, d.Date, time.Local)
		fmt.Fprintf(out, "%s %s\n", headerStyle.Render(day.Format("Mon Jan 2, 2006")),
			mutedStyle.Render(fmt.Sprintf("(%d)", len(d.Entries))))
		for _, e := range d.Entries {
			fmt.Fprint(out, "  ")
			printEntry(out, e, width, false)
		}
	}
	return nil
}
