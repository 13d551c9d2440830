// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"slices"
	"sync"

	"lifeos/internal/apperrors"
	"lifeos/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Listings are returned newest first, like the real server.
type FakeService struct {
	mu       sync.RWMutex
	nextID   int
	loggedIn bool
	password string
	tasks    []service.Task
	habits   []service.Habit
	report   *service.Report

	// Error injection for testing
	LoginErr          error
	RegisterErr       error
	LogoutErr         error
	ChangePasswordErr error
	ListTasksErr      map[int]error // page -> error
	CreateTaskErr     error
	UpdateTaskErr     error
	ToggleTaskErr     error
	DeleteTaskErr     error
	ListHabitsErr     error
	CreateHabitErr    error
	UpdateHabitErr    error
	DeleteHabitErr    error
	LogHabitErr       error
	DashboardErr      error
	ReportErr         error

	// Recorded calls
	Logins  int
	Logouts int
	Logged  []service.HabitLog
}

// NewFakeService creates an empty FakeService with a signed-in user.
func NewFakeService() *FakeService {
	return &FakeService{
		loggedIn:     true,
		password:     "password123",
		ListTasksErr: make(map[int]error),
	}
}

// LoggedIn reports whether the fake holds a session.
func (f *FakeService) LoggedIn() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loggedIn
}

// AddTask adds a task and returns it. Later tasks list first.
func (f *FakeService) AddTask(title, priority, status string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := service.Task{ID: f.nextID, Title: title, Priority: priority, Status: status}
	f.tasks = append([]service.Task{t}, f.tasks...)
	return t
}

// AddHabit adds a habit and returns it.
func (f *FakeService) AddHabit(name string, streak int, loggedToday bool) service.Habit {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := service.Habit{ID: f.nextID, Name: name, TargetType: service.DefaultTargetType,
		CurrentStreak: streak, IsLoggedToday: loggedToday}
	f.habits = append([]service.Habit{h}, f.habits...)
	return h
}

// SetReport sets the latest report.
func (f *FakeService) SetReport(r service.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = &r
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tasks)
}

// Habits returns a copy of the stored habits.
func (f *FakeService) Habits() []service.Habit {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.habits)
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) error {
	if err := service.ValidateCredentials(email, password); err != nil {
		return err
	}
	if f.LoginErr != nil {
		return f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Logins++
	f.loggedIn = true
	return nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, name, email, password string) (service.User, error) {
	if err := service.ValidateRegistration(name, email, password); err != nil {
		return service.User{}, err
	}
	if f.RegisterErr != nil {
		return service.User{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return service.User{ID: f.nextID, Name: name, Email: email, Role: "user"}, nil
}

// Logout implements service.Service. The session is cleared even on error.
func (f *FakeService) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Logouts++
	f.loggedIn = false
	return f.LogoutErr
}

// ChangePassword implements service.Service.
func (f *FakeService) ChangePassword(ctx context.Context, current, next string) error {
	if err := service.ValidatePasswordChange(current, next); err != nil {
		return err
	}
	if f.ChangePasswordErr != nil {
		return f.ChangePasswordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if current != f.password {
		return &apperrors.ServerRejected{Status: 400, Detail: "Current password is incorrect"}
	}
	f.password = next
	return nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, page, limit int) (service.Page[service.Task], error) {
	if err, ok := f.ListTasksErr[page]; ok && err != nil {
		return service.Page[service.Task]{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return pageOf(f.tasks, page, limit), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	in.Priority = service.NormalizePriority(in.Priority)
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := service.Task{ID: f.nextID, Title: in.Title, Description: in.Description,
		Priority: in.Priority, DueDate: in.DueDate, Status: service.StatusPending}
	f.tasks = append([]service.Task{t}, f.tasks...)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	in.Priority = service.NormalizePriority(in.Priority)
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return service.Task{}, notFound("Task")
	}
	f.tasks[i].Title = in.Title
	f.tasks[i].Description = in.Description
	f.tasks[i].DueDate = in.DueDate
	f.tasks[i].Priority = in.Priority
	return f.tasks[i], nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id int) (service.Task, error) {
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return service.Task{}, notFound("Task")
	}
	if f.tasks[i].Completed() {
		f.tasks[i].Status = service.StatusPending
	} else {
		f.tasks[i].Status = service.StatusCompleted
	}
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return notFound("Task")
	}
	f.tasks = slices.Delete(f.tasks, i, i+1)
	return nil
}

// ListHabits implements service.Service.
func (f *FakeService) ListHabits(ctx context.Context, page, limit int) (service.Page[service.Habit], error) {
	if f.ListHabitsErr != nil {
		return service.Page[service.Habit]{}, f.ListHabitsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return pageOf(f.habits, page, limit), nil
}

// CreateHabit implements service.Service.
func (f *FakeService) CreateHabit(ctx context.Context, in service.HabitInput) (service.Habit, error) {
	if err := in.Validate(); err != nil {
		return service.Habit{}, err
	}
	if f.CreateHabitErr != nil {
		return service.Habit{}, f.CreateHabitErr
	}
	return f.AddHabit(in.Name, 0, false), nil
}

// UpdateHabit implements service.Service.
func (f *FakeService) UpdateHabit(ctx context.Context, id int, in service.HabitInput) (service.Habit, error) {
	if err := in.Validate(); err != nil {
		return service.Habit{}, err
	}
	if f.UpdateHabitErr != nil {
		return service.Habit{}, f.UpdateHabitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.habits, func(h service.Habit) bool { return h.ID == id })
	if i < 0 {
		return service.Habit{}, notFound("Habit")
	}
	f.habits[i].Name = in.Name
	return f.habits[i], nil
}

// DeleteHabit implements service.Service.
func (f *FakeService) DeleteHabit(ctx context.Context, id int) error {
	if f.DeleteHabitErr != nil {
		return f.DeleteHabitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.habits, func(h service.Habit) bool { return h.ID == id })
	if i < 0 {
		return notFound("Habit")
	}
	f.habits = slices.Delete(f.habits, i, i+1)
	return nil
}

// LogHabit implements service.Service. Logging today adjusts the streak.
func (f *FakeService) LogHabit(ctx context.Context, id int, day service.Date, completed bool) (service.HabitLog, error) {
	if f.LogHabitErr != nil {
		return service.HabitLog{}, f.LogHabitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.habits, func(h service.Habit) bool { return h.ID == id })
	if i < 0 {
		return service.HabitLog{}, notFound("Habit")
	}
	h := &f.habits[i]
	if day.String() == service.Today().String() && h.IsLoggedToday != completed {
		h.IsLoggedToday = completed
		if completed {
			h.CurrentStreak++
		} else if h.CurrentStreak > 0 {
			h.CurrentStreak--
		}
	}
	f.nextID++
	l := service.HabitLog{ID: f.nextID, HabitID: id, Date: day, Completed: completed}
	f.Logged = append(f.Logged, l)
	return l, nil
}

// Dashboard implements service.Service.
func (f *FakeService) Dashboard(ctx context.Context) (service.Dashboard, error) {
	if f.DashboardErr != nil {
		return service.Dashboard{}, f.DashboardErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	d := service.Dashboard{TotalTasks: len(f.tasks), TotalHabits: len(f.habits), CurrentStreaks: []service.Streak{}}
	for _, t := range f.tasks {
		if t.Completed() {
			d.CompletedTasks++
		}
	}
	d.PendingTasks = d.TotalTasks - d.CompletedTasks
	if d.TotalTasks > 0 {
		d.TaskCompletionRate = float64(d.CompletedTasks*1000/d.TotalTasks) / 10
	}
	for _, h := range f.habits {
		if h.IsLoggedToday {
			d.HabitsLoggedToday++
		}
		d.CurrentStreaks = append(d.CurrentStreaks, service.Streak{Name: h.Name, Streak: h.CurrentStreak, LoggedToday: h.IsLoggedToday})
	}
	d.ProductivityScore = int(d.TaskCompletionRate*0.6 + 0.5)
	return d, nil
}

// LatestReport implements service.Service.
func (f *FakeService) LatestReport(ctx context.Context) (service.Report, error) {
	if f.ReportErr != nil {
		return service.Report{}, f.ReportErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.report == nil {
		return service.Report{}, apperrors.ErrNoReport
	}
	return *f.report, nil
}

// GenerateReport implements service.Service.
func (f *FakeService) GenerateReport(ctx context.Context) (service.GeneratedReport, error) {
	if f.ReportErr != nil {
		return service.GeneratedReport{}, f.ReportErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = &service.Report{ID: 1, Report: "Generated report.", Score: 42}
	return service.GeneratedReport{Message: "Report generated!", Score: 42}, nil
}

func notFound(what string) error {
	return &apperrors.ServerRejected{Status: 404, Detail: what + " not found"}
}

func pageOf[T any](all []T, page, limit int) service.Page[T] {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	total := len(all)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	items := append([]T{}, all[start:end]...)
	return service.Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: max(1, (total+limit-1)/limit),
		HasNext:    page*limit < total,
		HasPrev:    page > 1,
	}
}

var _ service.Service = (*FakeService)(nil)
