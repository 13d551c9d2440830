// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"lifeos/internal/notify"
	"lifeos/internal/service"
)

const (
	// ListSeparator is the separator line for sections.
	ListSeparator = "------------"

	dateLayout = "2006-01-02"
)

// FormatTaskLine formats one row of the task list.
// Format: "{N:>4}  [x] {TITLE}  {PRIORITY}[  due {DATE}]\n"
func FormatTaskLine(w io.Writer, num int, task service.Task) {
	line := fmt.Sprintf("%4d  %s %s  %s", num, checkbox(task.Completed()), normalizeTitle(task.Title), task.Priority)
	if task.DueDate != nil && !task.DueDate.IsZero() {
		line += "  due " + task.DueDate.Format(dateLayout)
	}
	fmt.Fprintln(w, line)
}

// FormatTask prints the full record of a task. now anchors relative times.
func FormatTask(w io.Writer, task service.Task, now time.Time) {
	status := "pending"
	if task.Completed() {
		status = "completed"
	}
	fmt.Fprintln(w, normalizeTitle(task.Title))
	fmt.Fprintf(w, "  status:   %s\n", status)
	fmt.Fprintf(w, "  priority: %s\n", task.Priority)
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		fmt.Fprintf(w, "  notes:    %s\n", normalizeTitle(*task.Description))
	}
	if task.DueDate != nil && !task.DueDate.IsZero() {
		fmt.Fprintf(w, "  due:      %s\n", task.DueDate.Format(dateLayout))
	}
	if !task.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  created:  %s\n", humanize.RelTime(task.CreatedAt.Time, now, "ago", "from now"))
	}
}

// FormatHabitLine formats one row of the habit list.
// Format: "{N:>4}  [x] {NAME}  streak {N}\n"
func FormatHabitLine(w io.Writer, num int, habit service.Habit) {
	fmt.Fprintf(w, "%4d  %s %s  streak %d\n", num, checkbox(habit.IsLoggedToday), normalizeTitle(habit.Name), habit.CurrentStreak)
}

// FormatHabit prints one habit with its check-in state.
func FormatHabit(w io.Writer, habit service.Habit) {
	today := "not yet"
	if habit.IsLoggedToday {
		today = "done"
	}
	fmt.Fprintln(w, normalizeTitle(habit.Name))
	fmt.Fprintf(w, "  today:  %s\n", today)
	fmt.Fprintf(w, "  streak: %s\n", dayCount(habit.CurrentStreak))
}

// FormatMore prints the load-more hint under a list page.
func FormatMore(w io.Writer, page int, hasNext bool) {
	if hasNext {
		fmt.Fprintf(w, "-- more: --page %d\n", page+1)
	}
}

// FormatDashboard prints the aggregate metrics and the streak table.
func FormatDashboard(w io.Writer, d service.Dashboard) {
	fmt.Fprintf(w, "Productivity score: %d/100\n", d.ProductivityScore)
	fmt.Fprintln(w, ListSeparator)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Tasks", fmt.Sprintf("%d done / %d total", d.CompletedTasks, d.TotalTasks))
	tbl.AddRow("Pending", d.PendingTasks)
	tbl.AddRow("Completion", percent(d.TaskCompletionRate))
	tbl.AddRow("Habits today", fmt.Sprintf("%d / %d", d.HabitsLoggedToday, d.TotalHabits))
	tbl.AddRow("Consistency", percent(d.HabitConsistencyRate))
	fmt.Fprintln(w, tbl)

	if len(d.CurrentStreaks) == 0 {
		return
	}
	fmt.Fprintln(w, ListSeparator)
	streaks := uitable.New()
	streaks.Separator = "  "
	streaks.AddRow("HABIT", "STREAK", "TODAY")
	for _, s := range d.CurrentStreaks {
		streaks.AddRow(normalizeTitle(s.Name), dayCount(s.Streak), checkbox(s.LoggedToday))
	}
	fmt.Fprintln(w, streaks)
}

// FormatReport prints a weekly report header and its text.
func FormatReport(w io.Writer, r service.Report, now time.Time) {
	fmt.Fprintf(w, "Week %s to %s  score %d/100\n", r.WeekStart, r.WeekEnd, r.Score)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(w, "generated %s\n", humanize.RelTime(r.CreatedAt.Time, now, "ago", "from now"))
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, strings.TrimRight(r.Report, "\n"))
}

// RenderMarkdown renders report text for a terminal of the given width.
// On renderer failure the text is returned unchanged.
func RenderMarkdown(text string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

var toastColors = map[notify.Kind]*color.Color{
	notify.Info:    color.New(color.FgCyan),
	notify.Success: color.New(color.FgGreen),
	notify.Warning: color.New(color.FgYellow),
	notify.Error:   color.New(color.FgRed, color.Bold),
}

var toastIcons = map[notify.Kind]string{
	notify.Info:    "i",
	notify.Success: "✓",
	notify.Warning: "!",
	notify.Error:   "✗",
}

// FormatToast returns a one-line toast, colored by kind when color output
// is enabled.
func FormatToast(t notify.Toast) string {
	return toastColors[t.Kind].Sprintf("%s %s", toastIcons[t.Kind], t.Text)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func percent(v float64) string {
	return humanize.FtoaWithDigits(v, 1) + "%"
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(n)) + " days"
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
