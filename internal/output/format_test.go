package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"lifeos/internal/notify"
	"lifeos/internal/output"
	"lifeos/internal/service"
	"lifeos/internal/testutil"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ts(t time.Time) *service.Timestamp {
	return &service.Timestamp{Time: t}
}

func TestFormatTaskLine(t *testing.T) {
	tests := []struct {
		name string
		num  int
		task service.Task
		want string
	}{
		{
			name: "pending",
			num:  1,
			task: service.Task{Title: "Buy milk", Priority: "low", Status: "pending"},
			want: "   1  [ ] Buy milk  low\n",
		},
		{
			name: "completed with due date",
			num:  12,
			task: service.Task{Title: "File taxes", Priority: "high", Status: "completed",
				DueDate: ts(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))},
			want: "  12  [x] File taxes  high  due 2025-04-15\n",
		},
		{
			name: "multiline title",
			num:  3,
			task: service.Task{Title: "line one\nline two", Priority: "medium", Status: "pending"},
			want: "   3  [ ] line one line two  medium\n",
		},
		{
			name: "blank title",
			num:  4,
			task: service.Task{Title: "  ", Priority: "medium", Status: "pending"},
			want: "   4  [ ] (untitled)  medium\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			output.FormatTaskLine(&buf, tt.num, tt.task)
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatHabitLine(t *testing.T) {
	var buf bytes.Buffer
	output.FormatHabitLine(&buf, 2, service.Habit{Name: "Read", CurrentStreak: 5, IsLoggedToday: true})
	output.FormatHabitLine(&buf, 3, service.Habit{Name: "Run"})
	want := "   2  [x] Read  streak 5\n   3  [ ] Run  streak 0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatTask(t *testing.T) {
	notes := "Collect receipts\nfirst"
	task := service.Task{
		Title:       "File taxes",
		Description: &notes,
		Priority:    "high",
		Status:      "pending",
		DueDate:     ts(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)),
		CreatedAt:   service.Timestamp{Time: now.Add(-72 * time.Hour)},
	}
	var buf bytes.Buffer
	output.FormatTask(&buf, task, now)
	testutil.Golden(t, "task", buf.Bytes())
}

func TestFormatHabit(t *testing.T) {
	var buf bytes.Buffer
	output.FormatHabit(&buf, service.Habit{Name: "Read", CurrentStreak: 1, IsLoggedToday: true})
	want := "Read\n  today:  done\n  streak: 1 day\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatReport(t *testing.T) {
	r := service.Report{
		WeekStart: service.Date{Time: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		WeekEnd:   service.Date{Time: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		Report:    "You completed 4 of 5 tasks.\n",
		Score:     78,
		CreatedAt: service.Timestamp{Time: now.Add(-time.Hour)},
	}
	var buf bytes.Buffer
	output.FormatReport(&buf, r, now)
	testutil.Golden(t, "report", buf.Bytes())
}

func TestFormatMore(t *testing.T) {
	var buf bytes.Buffer
	output.FormatMore(&buf, 1, false)
	if buf.Len() != 0 {
		t.Errorf("expected no hint on last page, got %q", buf.String())
	}
	output.FormatMore(&buf, 2, true)
	if buf.String() != "-- more: --page 3\n" {
		t.Errorf("unexpected hint %q", buf.String())
	}
}

func TestFormatDashboard(t *testing.T) {
	d := service.Dashboard{
		TotalTasks: 4, CompletedTasks: 3, PendingTasks: 1, TaskCompletionRate: 75,
		TotalHabits: 2, HabitsLoggedToday: 1, HabitConsistencyRate: 42.9,
		ProductivityScore: 62,
		CurrentStreaks: []service.Streak{
			{Name: "Read", Streak: 12, LoggedToday: true},
			{Name: "Run", Streak: 0},
		},
	}
	var buf bytes.Buffer
	output.FormatDashboard(&buf, d)
	got := buf.String()

	for _, want := range []string{
		"Productivity score: 62/100\n",
		"3 done / 4 total",
		"75%",
		"1 / 2",
		"42.9%",
		"HABIT",
		"12 days",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dashboard output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "Read") > strings.Index(got, "Run") {
		t.Errorf("expected streaks in server order:\n%s", got)
	}
}

func TestFormatDashboard_NoHabits(t *testing.T) {
	var buf bytes.Buffer
	output.FormatDashboard(&buf, service.Dashboard{})
	if strings.Contains(buf.String(), "HABIT") {
		t.Errorf("expected no streak table:\n%s", buf.String())
	}
}

func TestFormatToast(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	tests := []struct {
		kind notify.Kind
		want string
	}{
		{notify.Success, "✓ Task added"},
		{notify.Error, "✗ Task added"},
		{notify.Warning, "! Task added"},
		{notify.Info, "i Task added"},
	}
	for _, tt := range tests {
		if got := output.FormatToast(notify.Toast{Text: "Task added", Kind: tt.kind}); got != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.kind, tt.want, got)
		}
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	out := output.RenderMarkdown("Great **week**", 40)
	if !strings.Contains(out, "week") {
		t.Errorf("expected rendered text to contain the word, got %q", out)
	}
}
