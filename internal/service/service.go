package service

import (
	"context"
	"time"
)

// Service defines the interface for LifeOS backend operations.
// All REST calls go through this interface; commands and views never
// build requests directly.
type Service interface {
	// Login exchanges credentials for a token pair and stores it.
	Login(ctx context.Context, email, password string) error

	// Register creates an account. It does not log in.
	Register(ctx context.Context, name, email, password string) (User, error)

	// Logout revokes the refresh token server-side (best effort) and clears
	// the stored session.
	Logout(ctx context.Context) error

	// ChangePassword replaces the account password.
	ChangePassword(ctx context.Context, current, next string) error

	// ListTasks returns one page of tasks in server order.
	// page is 1-based.
	ListTasks(ctx context.Context, page, limit int) (Page[Task], error)

	// CreateTask creates a new task.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask edits a task.
	UpdateTask(ctx context.Context, id int, in TaskInput) (Task, error)

	// ToggleTask flips a task between pending and completed.
	ToggleTask(ctx context.Context, id int) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int) error

	// ListHabits returns one page of habits in server order.
	ListHabits(ctx context.Context, page, limit int) (Page[Habit], error)

	// CreateHabit creates a new habit.
	CreateHabit(ctx context.Context, in HabitInput) (Habit, error)

	// UpdateHabit renames a habit.
	UpdateHabit(ctx context.Context, id int, in HabitInput) (Habit, error)

	// DeleteHabit deletes a habit.
	DeleteHabit(ctx context.Context, id int) error

	// LogHabit records (or clears) a check-in for the given day.
	LogHabit(ctx context.Context, id int, day Date, completed bool) (HabitLog, error)

	// Dashboard returns aggregate metrics.
	Dashboard(ctx context.Context) (Dashboard, error)

	// LatestReport returns the newest weekly report, or apperrors.ErrNoReport.
	LatestReport(ctx context.Context) (Report, error)

	// GenerateReport builds this week's report on demand.
	GenerateReport(ctx context.Context) (GeneratedReport, error)
}

// Today returns today's date in local time.
func Today() Date {
	return NewDate(time.Now())
}
