// Package service defines the backend-agnostic interface for LifeOS operations.
package service

import (
	"strings"
	"time"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// DefaultTargetType is the only habit cadence the server knows.
const DefaultTargetType = "daily"

// Task represents a single task item.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"` // "pending" or "completed"
	Priority    string     `json:"priority"`
	DueDate     *Timestamp `json:"due_date"`
	CreatedAt   Timestamp  `json:"created_at"`
	UserID      int        `json:"user_id"`
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// TaskInput is the payload for creating or editing a task.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
}

// Habit represents a tracked habit with its current streak.
type Habit struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	TargetType    string `json:"target_type"`
	UserID        int    `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	IsLoggedToday bool   `json:"is_logged_today"`
}

// HabitInput is the payload for creating or renaming a habit.
type HabitInput struct {
	Name       string `json:"name"`
	TargetType string `json:"target_type"`
}

// HabitLog is a single check-in.
type HabitLog struct {
	ID        int  `json:"id"`
	HabitID   int  `json:"habit_id"`
	Date      Date `json:"date"`
	Completed bool `json:"completed"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Streak is one habit's entry in the dashboard.
type Streak struct {
	Name        string `json:"name"`
	Streak      int    `json:"streak"`
	LoggedToday bool   `json:"logged_today"`
}

// Dashboard holds aggregate metrics.
type Dashboard struct {
	TotalTasks           int      `json:"total_tasks"`
	CompletedTasks       int      `json:"completed_tasks"`
	PendingTasks         int      `json:"pending_tasks"`
	TaskCompletionRate   float64  `json:"task_completion_rate"`
	TotalHabits          int      `json:"total_habits"`
	HabitsLoggedToday    int      `json:"habits_logged_today"`
	HabitConsistencyRate float64  `json:"habit_consistency_rate"`
	ProductivityScore    int      `json:"productivity_score"`
	CurrentStreaks       []Streak `json:"current_streaks"`
}

// Report is a stored weekly report.
type Report struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	WeekStart Date      `json:"week_start"`
	WeekEnd   Date      `json:"week_end"`
	Report    string    `json:"report"`
	Score     int       `json:"score"`
	CreatedAt Timestamp `json:"created_at"`
}

// GeneratedReport is the acknowledgement of an on-demand report run.
type GeneratedReport struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}

// User is a registered account.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
}

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// timestampLayouts are accepted for datetimes; the server may omit the zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Timestamp is a datetime that tolerates a missing zone (read as UTC).
type Timestamp struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*ts = Timestamp{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			ts.Time = t
			return nil
		}
		lastErr = err
	}
	return lastErr
}
