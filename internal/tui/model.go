// Package tui is the interactive shell. It drives the session, list, toast
// and confirmation controllers from a Bubble Tea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/hashicorp/go-hclog"

	"lifeos/internal/apperrors"
	"lifeos/internal/confirm"
	"lifeos/internal/logging"
	"lifeos/internal/notify"
	"lifeos/internal/pager"
	"lifeos/internal/service"
	"lifeos/internal/session"
)

// Options configures a Model.
type Options struct {
	Service service.Service
	Store   session.Store
	Log     hclog.Logger

	// Toast timings. Zero uses the notify defaults.
	ToastDisplay  time.Duration
	ToastCooldown time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the root Bubble Tea model. It is used through a pointer; the
// confirmation gate it embeds must not be copied.
type Model struct {
	ctx     context.Context
	svc     service.Service
	sess    *session.Controller
	tasks   *pager.Controller[service.Task]
	habits  *pager.Controller[service.Habit]
	lists   pager.Registry
	gate    confirm.Gate[tea.Cmd]
	toasts  *notify.Queue
	log     hclog.Logger
	now     func() time.Time
	program *tea.Program

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model

	width, height int

	form     *activeForm
	cursor   map[session.Tab]int
	loading  map[session.Tab]bool
	loadErr  map[session.Tab]error
	overview bool
}

// New builds a Model. Nothing is loaded until the program starts.
func New(ctx context.Context, opts Options) *Model {
	log := logging.OrDiscard(opts.Log)
	tasks := pager.New(pager.Tasks, opts.Service.ListTasks, service.CompareTasks, log)
	habits := pager.New(pager.Habits, opts.Service.ListHabits, nil, log)
	lists := pager.Registry{}
	lists.Register(tasks)
	lists.Register(habits)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	return &Model{
		ctx:      ctx,
		svc:      opts.Service,
		sess:     session.New(opts.Service, opts.Store, lists, log),
		tasks:    tasks,
		habits:   habits,
		lists:    lists,
		toasts:   notify.New(opts.ToastDisplay, opts.ToastCooldown),
		log:      log.Named("tui"),
		now:      now,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		viewport: viewport.New(80, 20),
		cursor:   map[session.Tab]int{},
		loading:  map[session.Tab]bool{},
		loadErr:  map[session.Tab]error{},
	}
}

type (
	loadedMsg struct {
		tab session.Tab
		err error
	}
	authMsg struct {
		values formValues
		state  session.State
		err    error
	}
	mutatedMsg struct {
		kind    pager.Kind
		text    string
		deleted bool
		err     error
	}
	reportMsg struct {
		report service.GeneratedReport
		err    error
	}
	passwordMsg  struct{ err error }
	loggedOutMsg struct{ err error }
	expiredMsg   struct{}
	toastMsg     struct{}
)

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	st := m.sess.Boot()
	if st.Status != session.LoggedIn {
		return tea.Batch(m.spinner.Tick, m.openForm(formAuth, &formValues{}))
	}
	return tea.Batch(m.spinner.Tick, m.switchTab(st.Tab))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = max(m.contentWidth(), 20)
		m.viewport.Height = max(m.height-8, 5)
		if m.overview {
			m.syncDashboard()
		}
		if m.form != nil {
			m.form.form = m.form.form.WithWidth(min(60, max(m.contentWidth(), 20)))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastMsg:
		return m, m.step(m.toasts.Advance())

	case loadedMsg:
		return m, m.loaded(msg)

	case authMsg:
		if msg.err != nil {
			v := msg.values
			v.password = ""
			return m, tea.Batch(m.toast(apperrors.Message(msg.err), notify.Error), m.openForm(formAuth, &v))
		}
		m.form = nil
		text := "Welcome back!"
		if msg.values.mode == modeRegister {
			text = fmt.Sprintf("Welcome, %s!", strings.TrimSpace(msg.values.name))
		}
		return m, tea.Batch(m.toast(text, notify.Success), m.switchTab(msg.state.Tab))

	case mutatedMsg:
		if msg.err != nil {
			return m, m.failed(msg.err)
		}
		return m, tea.Batch(m.toast(msg.text, notify.Success), m.refresh(msg.kind, msg.deleted))

	case reportMsg:
		if msg.err != nil {
			return m, m.failed(msg.err)
		}
		text := fmt.Sprintf("%s Score %d/100.", strings.TrimSpace(msg.report.Message), msg.report.Score)
		return m, tea.Batch(m.toast(text, notify.Success), m.reload(session.Dashboard))

	case passwordMsg:
		if msg.err != nil {
			return m, m.failed(msg.err)
		}
		return m, m.toast("Password changed.", notify.Success)

	case loggedOutMsg:
		if msg.err != nil {
			m.log.Warn("server logout failed", "error", msg.err)
		}
		m.reset()
		return m, tea.Batch(m.toast("Logged out.", notify.Info), m.openForm(formAuth, &formValues{}))

	case expiredMsg:
		return m, m.expire()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}

	if m.gate.Open() {
		if k, ok := msg.(tea.KeyMsg); ok {
			return m, m.handleModalKey(k)
		}
		return m, nil
	}
	if m.form != nil {
		return m, m.updateForm(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKey(k)
	}
	return m, nil
}

func (m *Model) loaded(msg loadedMsg) tea.Cmd {
	if errors.Is(msg.err, pager.ErrStale) {
		return nil
	}
	m.loading[msg.tab] = false
	if errors.Is(msg.err, apperrors.ErrSessionExpired) {
		m.loadErr[msg.tab] = nil
		return m.expire()
	}
	m.loadErr[msg.tab] = msg.err
	if msg.err != nil {
		return nil
	}
	if msg.tab == session.Dashboard {
		m.overview = true
		m.syncDashboard()
	}
	m.moveCursor(msg.tab, 0)
	return nil
}

// failed reports a mutation error. An expired session sends the user back
// to the login form; anything else becomes an error toast.
func (m *Model) failed(err error) tea.Cmd {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		return m.expire()
	}
	m.log.Debug("operation failed", "error", err)
	return m.toast(apperrors.Message(err), notify.Error)
}

// expire drops to the login form. Repeated expiries while the form is
// already up are ignored.
func (m *Model) expire() tea.Cmd {
	if m.form != nil && m.form.kind == formAuth {
		return nil
	}
	m.sess.Expire()
	m.reset()
	return tea.Batch(
		m.toast("Your session expired. Please sign in again.", notify.Warning),
		m.openForm(formAuth, &formValues{}),
	)
}

func (m *Model) reset() {
	m.gate.Dismiss()
	m.form = nil
	m.overview = false
	m.cursor = map[session.Tab]int{}
	m.loading = map[session.Tab]bool{}
	m.loadErr = map[session.Tab]error{}
}

func (m *Model) toast(text string, kind notify.Kind) tea.Cmd {
	return m.step(m.toasts.Enqueue(text, kind))
}

func (m *Model) step(s notify.Step) tea.Cmd {
	if s.Action == notify.None {
		return nil
	}
	return tea.Tick(s.After, func(time.Time) tea.Msg { return toastMsg{} })
}

func (m *Model) switchTab(tab session.Tab) tea.Cmd {
	load, err := m.sess.SwitchTab(tab)
	if err != nil {
		m.log.Warn("switch tab", "tab", tab, "error", err)
		return nil
	}
	return m.run(tab, load)
}

func (m *Model) reload(tab session.Tab) tea.Cmd {
	return m.run(tab, func(ctx context.Context) error { return m.sess.Load(ctx, tab) })
}

// refresh reloads a list after a mutation. Deletes may step back a page.
func (m *Model) refresh(kind pager.Kind, deleted bool) tea.Cmd {
	l, err := m.lists.Get(kind)
	if err != nil {
		m.log.Error("refresh", "error", err)
		return nil
	}
	load := l.Reload
	if deleted {
		load = l.AfterDelete
	}
	return m.run(tabOf(kind), load)
}

func (m *Model) loadMore(kind pager.Kind) tea.Cmd {
	l, err := m.lists.Get(kind)
	if err != nil || !l.State().HasNext || m.loading[tabOf(kind)] {
		return nil
	}
	return m.run(tabOf(kind), func(ctx context.Context) error { return m.lists.LoadMore(ctx, kind) })
}

func (m *Model) run(tab session.Tab, load session.Trigger) tea.Cmd {
	if tab == session.Profile {
		return nil
	}
	m.loading[tab] = true
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{tab: tab, err: load(ctx)}
	}
}

func (m *Model) mutate(kind pager.Kind, text string, deleted bool, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return mutatedMsg{kind: kind, text: text, deleted: deleted, err: op(ctx)}
	}
}

func tabOf(kind pager.Kind) session.Tab {
	if kind == pager.Habits {
		return session.Habits
	}
	return session.Tasks
}

func (m *Model) offsetTab(delta int) session.Tab {
	cur := m.sess.State().Tab
	n := len(session.Tabs)
	for i, t := range session.Tabs {
		if t == cur {
			return session.Tabs[((i+delta)%n+n)%n]
		}
	}
	return session.Dashboard
}

func (m *Model) listLen(tab session.Tab) int {
	switch tab {
	case session.Tasks:
		return m.tasks.Len()
	case session.Habits:
		return m.habits.Len()
	}
	return 0
}

// moveCursor moves the tab's cursor by delta, clamped to the loaded rows.
func (m *Model) moveCursor(tab session.Tab, delta int) {
	n := m.listLen(tab)
	c := m.cursor[tab] + delta
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursor[tab] = c
}

func (m *Model) handleKey(k tea.KeyMsg) tea.Cmd {
	tab := m.sess.State().Tab
	switch {
	case key.Matches(k, m.keys.Quit):
		return tea.Quit
	case key.Matches(k, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(k, m.keys.NextTab):
		return m.switchTab(m.offsetTab(1))
	case key.Matches(k, m.keys.PrevTab):
		return m.switchTab(m.offsetTab(-1))
	case key.Matches(k, m.keys.Dashboard):
		return m.switchTab(session.Dashboard)
	case key.Matches(k, m.keys.Tasks):
		return m.switchTab(session.Tasks)
	case key.Matches(k, m.keys.Habits):
		return m.switchTab(session.Habits)
	case key.Matches(k, m.keys.Profile):
		return m.switchTab(session.Profile)
	case key.Matches(k, m.keys.Logout):
		m.requestLogout()
		return nil
	case key.Matches(k, m.keys.Reload):
		return m.reload(tab)
	}

	switch tab {
	case session.Dashboard:
		return m.dashboardKey(k)
	case session.Tasks:
		return m.tasksKey(k)
	case session.Habits:
		return m.habitsKey(k)
	case session.Profile:
		if key.Matches(k, m.keys.Password) {
			return m.openForm(formPassword, &formValues{})
		}
	}
	return nil
}

func (m *Model) dashboardKey(k tea.KeyMsg) tea.Cmd {
	if key.Matches(k, m.keys.Generate) {
		ctx := m.ctx
		return func() tea.Msg {
			r, err := m.svc.GenerateReport(ctx)
			return reportMsg{report: r, err: err}
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(k)
	return cmd
}

func (m *Model) tasksKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(k, m.keys.Up):
		m.moveCursor(session.Tasks, -1)
		return nil
	case key.Matches(k, m.keys.Down):
		m.moveCursor(session.Tasks, 1)
		return nil
	case key.Matches(k, m.keys.Add):
		return m.openForm(formTask, &formValues{})
	case key.Matches(k, m.keys.More):
		return m.loadMore(pager.Tasks)
	}

	task, ok := m.tasks.At(m.cursor[session.Tasks])
	if !ok {
		return nil
	}
	id := task.ID
	switch {
	case key.Matches(k, m.keys.Edit):
		v := &formValues{id: id, title: task.Title, priority: task.Priority, due: task.DueDate}
		if task.Description != nil {
			v.notes = *task.Description
		}
		return m.openForm(formTask, v)
	case key.Matches(k, m.keys.Toggle):
		text := "Task completed."
		if task.Completed() {
			text = "Task reopened."
		}
		return m.mutate(pager.Tasks, text, false, func(ctx context.Context) error {
			_, err := m.svc.ToggleTask(ctx, id)
			return err
		})
	case key.Matches(k, m.keys.Delete):
		m.gate.Request(confirm.Request[tea.Cmd]{
			Title:        "Delete task",
			Message:      fmt.Sprintf("Delete %q? This cannot be undone.", task.Title),
			ConfirmLabel: "Delete",
			Dangerous:    true,
			OnConfirm: func() tea.Cmd {
				return m.mutate(pager.Tasks, "Task deleted.", true, func(ctx context.Context) error {
					return m.svc.DeleteTask(ctx, id)
				})
			},
		})
	}
	return nil
}

func (m *Model) habitsKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(k, m.keys.Up):
		m.moveCursor(session.Habits, -1)
		return nil
	case key.Matches(k, m.keys.Down):
		m.moveCursor(session.Habits, 1)
		return nil
	case key.Matches(k, m.keys.Add):
		return m.openForm(formHabit, &formValues{})
	case key.Matches(k, m.keys.More):
		return m.loadMore(pager.Habits)
	}

	habit, ok := m.habits.At(m.cursor[session.Habits])
	if !ok {
		return nil
	}
	id := habit.ID
	switch {
	case key.Matches(k, m.keys.Edit):
		return m.openForm(formHabit, &formValues{id: id, name: habit.Name})
	case key.Matches(k, m.keys.Toggle):
		completed := !habit.IsLoggedToday
		text := "Checked in: " + habit.Name
		if !completed {
			text = "Check-in cleared: " + habit.Name
		}
		day := service.NewDate(m.now())
		return m.mutate(pager.Habits, text, false, func(ctx context.Context) error {
			_, err := m.svc.LogHabit(ctx, id, day, completed)
			return err
		})
	case key.Matches(k, m.keys.Delete):
		m.gate.Request(confirm.Request[tea.Cmd]{
			Title:        "Delete habit",
			Message:      fmt.Sprintf("Delete %q and its history?", habit.Name),
			ConfirmLabel: "Delete",
			Dangerous:    true,
			OnConfirm: func() tea.Cmd {
				return m.mutate(pager.Habits, "Habit deleted.", true, func(ctx context.Context) error {
					return m.svc.DeleteHabit(ctx, id)
				})
			},
		})
	}
	return nil
}

func (m *Model) requestLogout() {
	m.gate.Request(session.LogoutRequest(m.ctx, m.sess, func(logout func() error) tea.Cmd {
		return func() tea.Msg { return loggedOutMsg{err: logout()} }
	}))
}

func (m *Model) handleModalKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case k.Type == tea.KeyCtrlC:
		return tea.Quit
	case key.Matches(k, m.keys.Confirm):
		cmd, _ := m.gate.Confirm()
		return cmd
	case key.Matches(k, m.keys.Dismiss):
		m.gate.Dismiss()
	}
	return nil
}

// handleMouse dismisses the open dialog on a click outside it.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	req, open := m.gate.Pending()
	if !open {
		return nil
	}
	x, y, w, h := m.modalBounds(req)
	if msg.X < x || msg.X >= x+w || msg.Y < y || msg.Y >= y+h {
		m.gate.Dismiss()
	}
	return nil
}

func (m *Model) openForm(kind formKind, v *formValues) tea.Cmd {
	var f *huh.Form
	switch kind {
	case formAuth:
		f = authForm(v)
	case formTask:
		f = taskForm(v)
	case formHabit:
		f = habitForm(v)
	case formPassword:
		f = passwordForm(v)
	}
	if m.width > 0 {
		f = f.WithWidth(min(60, max(m.contentWidth(), 20)))
	}
	m.form = &activeForm{kind: kind, form: f, values: v}
	return f.Init()
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.Type == tea.KeyCtrlC:
			return tea.Quit
		case k.Type == tea.KeyEsc && m.form.kind != formAuth:
			m.form = nil
			return nil
		}
	}

	model, cmd := m.form.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form.form = f
	}
	switch m.form.form.State {
	case huh.StateCompleted:
		done := m.form
		m.form = nil
		return tea.Batch(cmd, m.submit(done))
	case huh.StateAborted:
		done := m.form
		m.form = nil
		if done.kind == formAuth {
			return tea.Quit
		}
	}
	return cmd
}

func (m *Model) submit(f *activeForm) tea.Cmd {
	v := f.values
	switch f.kind {
	case formAuth:
		values := *v
		ctx := m.ctx
		return func() tea.Msg {
			var st session.State
			var err error
			email := strings.TrimSpace(values.email)
			if values.mode == modeRegister {
				st, err = m.sess.Register(ctx, strings.TrimSpace(values.name), email, values.password)
			} else {
				st, err = m.sess.Login(ctx, email, values.password)
			}
			return authMsg{values: values, state: st, err: err}
		}

	case formTask:
		in := v.taskInput()
		if v.id == 0 {
			return m.mutate(pager.Tasks, "Task added.", false, func(ctx context.Context) error {
				_, err := m.svc.CreateTask(ctx, in)
				return err
			})
		}
		id := v.id
		return m.mutate(pager.Tasks, "Task updated.", false, func(ctx context.Context) error {
			_, err := m.svc.UpdateTask(ctx, id, in)
			return err
		})

	case formHabit:
		in := service.HabitInput{Name: strings.TrimSpace(v.name), TargetType: service.DefaultTargetType}
		if v.id == 0 {
			return m.mutate(pager.Habits, "Habit added.", false, func(ctx context.Context) error {
				_, err := m.svc.CreateHabit(ctx, in)
				return err
			})
		}
		id := v.id
		return m.mutate(pager.Habits, "Habit renamed.", false, func(ctx context.Context) error {
			_, err := m.svc.UpdateHabit(ctx, id, in)
			return err
		})

	case formPassword:
		current, next := v.password, v.next
		if err := service.ValidatePasswordChange(current, next); err != nil {
			return m.toast(apperrors.Message(err), notify.Warning)
		}
		ctx := m.ctx
		m.gate.Request(confirm.Request[tea.Cmd]{
			Title:        "Change password",
			Message:      "Your new password takes effect immediately.",
			ConfirmLabel: "Change",
			OnConfirm: func() tea.Cmd {
				return func() tea.Msg {
					return passwordMsg{err: m.svc.ChangePassword(ctx, current, next)}
				}
			},
		})
	}
	return nil
}
