package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lifeos/internal/apperrors"
	"lifeos/internal/notify"
	"lifeos/internal/service"
	"lifeos/internal/session"
	"lifeos/internal/testutil"
)

type memStore struct {
	session bool
	tab     string
}

func (s *memStore) HasSession() bool        { return s.session }
func (s *memStore) Tab() string             { return s.tab }
func (s *memStore) SetTab(tab string) error { s.tab = tab; return nil }

func newModel(t *testing.T, store *memStore) (*Model, *testutil.FakeService) {
	t.Helper()
	svc := testutil.NewFakeService()
	m := New(context.Background(), Options{
		Service:       svc,
		Store:         store,
		ToastDisplay:  time.Millisecond,
		ToastCooldown: time.Millisecond,
	})
	return m, svc
}

// boot starts the model and runs its initial loads to completion.
func boot(t *testing.T, m *Model) {
	t.Helper()
	drain(t, m, m.Init())
}

// exec runs cmd, giving up on commands that wait on timers.
func exec(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drain runs cmd and feeds the shell's own messages back into Update until
// nothing is left. Timer, spinner and form messages are dropped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) (quit bool) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("update loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := exec(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			quit = true
		case loadedMsg, authMsg, mutatedMsg, reportMsg, passwordMsg, loggedOutMsg, expiredMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
	return quit
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs whatever it triggers.
func press(t *testing.T, m *Model, s string) (quit bool) {
	t.Helper()
	_, cmd := m.Update(keyMsg(s))
	return drain(t, m, cmd)
}

func visibleToast(t *testing.T, m *Model) notify.Toast {
	t.Helper()
	toast, ok := m.toasts.Visible()
	if !ok {
		t.Fatal("expected a visible toast")
	}
	return toast
}

func TestInit_LoggedOutShowsLogin(t *testing.T) {
	m, _ := newModel(t, &memStore{})
	boot(t, m)

	if m.form == nil || m.form.kind != formAuth {
		t.Fatalf("expected login form, got %+v", m.form)
	}
	if !strings.Contains(m.View(), "LifeOS") {
		t.Errorf("login view missing title:\n%s", m.View())
	}
}

func TestInit_LoadsStoredTab(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Write report", service.PriorityHigh, service.StatusPending)
	boot(t, m)

	if got := m.sess.State().Tab; got != session.Tasks {
		t.Fatalf("tab = %s, want tasks", got)
	}
	if m.tasks.Len() != 1 {
		t.Fatalf("loaded %d tasks, want 1", m.tasks.Len())
	}
	if m.loading[session.Tasks] {
		t.Error("tasks still marked loading")
	}
	if !strings.Contains(m.View(), "Write report") {
		t.Errorf("view missing task:\n%s", m.View())
	}
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := &memStore{tab: "habits"}
		m, svc := newModel(t, store)
		boot(t, m)

		drain(t, m, m.submit(&activeForm{kind: formAuth, values: &formValues{
			mode: modeSignIn, email: "ada@example.com", password: "password123",
		}}))

		if svc.Logins != 1 {
			t.Errorf("logins = %d, want 1", svc.Logins)
		}
		if st := m.sess.State(); st.Status != session.LoggedIn || st.Tab != session.Habits {
			t.Errorf("state = %+v, want logged in on habits", st)
		}
		if m.form != nil {
			t.Error("login form still open")
		}
		if got := visibleToast(t, m); got.Text != "Welcome back!" || got.Kind != notify.Success {
			t.Errorf("toast = %+v", got)
		}
	})

	t.Run("rejected keeps email", func(t *testing.T) {
		m, svc := newModel(t, &memStore{})
		svc.LoginErr = &apperrors.ServerRejected{Status: 401, Detail: "Invalid credentials"}
		boot(t, m)

		drain(t, m, m.submit(&activeForm{kind: formAuth, values: &formValues{
			mode: modeSignIn, email: "ada@example.com", password: "wrong-password",
		}}))

		if m.sess.State().Status != session.LoggedOut {
			t.Error("expected to stay logged out")
		}
		if m.form == nil || m.form.kind != formAuth {
			t.Fatal("expected login form reopened")
		}
		if m.form.values.email != "ada@example.com" || m.form.values.password != "" {
			t.Errorf("values = %+v, want email kept and password cleared", m.form.values)
		}
		if got := visibleToast(t, m); got.Kind != notify.Error {
			t.Errorf("toast kind = %v, want error", got.Kind)
		}
	})

	t.Run("register signs in", func(t *testing.T) {
		m, svc := newModel(t, &memStore{})
		boot(t, m)

		drain(t, m, m.submit(&activeForm{kind: formAuth, values: &formValues{
			mode: modeRegister, name: "Ada", email: "ada@example.com", password: "password123",
		}}))

		if svc.Logins != 1 || m.sess.State().Status != session.LoggedIn {
			t.Fatalf("expected login after register, logins = %d", svc.Logins)
		}
		if got := visibleToast(t, m); got.Text != "Welcome, Ada!" {
			t.Errorf("toast = %q", got.Text)
		}
	})
}

func TestTabNavigation(t *testing.T) {
	store := &memStore{session: true}
	m, _ := newModel(t, store)
	boot(t, m)

	steps := []struct {
		key  string
		want session.Tab
	}{
		{"tab", session.Tasks},
		{"tab", session.Habits},
		{"l", session.Profile},
		{"tab", session.Dashboard},
		{"shift+tab", session.Profile},
		{"2", session.Tasks},
		{"1", session.Dashboard},
	}
	for _, s := range steps {
		press(t, m, s.key)
		if got := m.sess.State().Tab; got != s.want {
			t.Fatalf("after %q: tab = %s, want %s", s.key, got, s.want)
		}
		if store.tab != string(s.want) {
			t.Fatalf("after %q: stored tab = %q", s.key, store.tab)
		}
	}
}

func TestToggleTask(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	task := svc.AddTask("Water plants", service.PriorityLow, service.StatusPending)
	boot(t, m)

	press(t, m, "space")

	got := svc.Tasks()[0]
	if got.ID != task.ID || !got.Completed() {
		t.Fatalf("task = %+v, want completed", got)
	}
	if toast := visibleToast(t, m); toast.Text != "Task completed." {
		t.Errorf("toast = %q", toast.Text)
	}
	if row, _ := m.tasks.At(0); !row.Completed() {
		t.Error("list not reloaded after toggle")
	}
}

func TestDeleteTask(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Chore", service.PriorityMedium, service.StatusPending)
	boot(t, m)

	press(t, m, "d")
	if !m.gate.Open() {
		t.Fatal("expected confirmation")
	}
	if v := m.View(); !strings.Contains(v, "Delete task") || !strings.Contains(v, "Chore") {
		t.Errorf("dialog view:\n%s", v)
	}

	press(t, m, "n")
	if m.gate.Open() || len(svc.Tasks()) != 1 {
		t.Fatal("declining should close the dialog and keep the task")
	}

	press(t, m, "d")
	press(t, m, "enter")
	if len(svc.Tasks()) != 0 {
		t.Fatal("task not deleted")
	}
	if m.tasks.Len() != 0 {
		t.Errorf("list still shows %d rows", m.tasks.Len())
	}
	if toast := visibleToast(t, m); toast.Text != "Task deleted." {
		t.Errorf("toast = %q", toast.Text)
	}
}

func TestDeleteTask_Failure(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Sticky", service.PriorityMedium, service.StatusPending)
	svc.DeleteTaskErr = &apperrors.ServerRejected{Status: 500, Detail: "database unavailable"}
	boot(t, m)

	press(t, m, "d")
	press(t, m, "y")

	if m.tasks.Len() != 1 {
		t.Errorf("rows = %d, want the task kept", m.tasks.Len())
	}
	if toast := visibleToast(t, m); toast.Kind != notify.Error {
		t.Errorf("toast = %+v, want error", toast)
	}
}

func TestModalClickOutsideDismisses(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Anything", service.PriorityMedium, service.StatusPending)
	boot(t, m)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	click := func(x, y int) {
		m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	}

	press(t, m, "d")
	req, _ := m.gate.Pending()
	x, y, w, h := m.modalBounds(req)

	click(x+w/2, y+h/2)
	if !m.gate.Open() {
		t.Fatal("click inside closed the dialog")
	}
	click(0, 0)
	if m.gate.Open() {
		t.Fatal("click outside did not close the dialog")
	}
	if len(svc.Tasks()) != 1 {
		t.Error("dismissing must not delete")
	}
}

func TestHabitCheckIn(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "habits"})
	svc.AddHabit("Read", 3, false)
	boot(t, m)

	press(t, m, "x")

	h := svc.Habits()[0]
	if !h.IsLoggedToday || h.CurrentStreak != 4 {
		t.Fatalf("habit = %+v, want logged with streak 4", h)
	}
	if toast := visibleToast(t, m); toast.Text != "Checked in: Read" {
		t.Errorf("toast = %q", toast.Text)
	}
	if len(svc.Logged) != 1 || !svc.Logged[0].Completed {
		t.Errorf("logged = %+v", svc.Logged)
	}
}

func TestLoadMore(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	for i := range 45 {
		svc.AddTask(fmt.Sprintf("task %02d", i), service.PriorityMedium, service.StatusPending)
	}
	boot(t, m)

	if m.tasks.Len() != 20 {
		t.Fatalf("first page = %d rows", m.tasks.Len())
	}
	if !strings.Contains(m.View(), "Press m to load more") {
		t.Error("missing load-more hint")
	}
	press(t, m, "m")
	press(t, m, "m")
	if m.tasks.Len() != 45 {
		t.Fatalf("rows = %d, want 45", m.tasks.Len())
	}
	if strings.Contains(m.View(), "load more") {
		t.Error("hint shown on the last page")
	}
}

func TestCursorMovesAndClamps(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("one", service.PriorityMedium, service.StatusPending)
	svc.AddTask("two", service.PriorityMedium, service.StatusPending)
	boot(t, m)

	for _, k := range []string{"j", "j", "j"} {
		press(t, m, k)
	}
	if c := m.cursor[session.Tasks]; c != 1 {
		t.Errorf("cursor = %d, want clamped to 1", c)
	}
	press(t, m, "k")
	press(t, m, "k")
	if c := m.cursor[session.Tasks]; c != 0 {
		t.Errorf("cursor = %d, want 0", c)
	}
}

func TestLoadFailureOffersRetry(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Recovered", service.PriorityMedium, service.StatusPending)
	svc.ListTasksErr[1] = &apperrors.RequestFailed{Err: errors.New("connection refused")}
	boot(t, m)

	if !strings.Contains(m.View(), "Press r to retry") {
		t.Fatalf("missing retry hint:\n%s", m.View())
	}

	delete(svc.ListTasksErr, 1)
	press(t, m, "r")
	if m.loadErr[session.Tasks] != nil || m.tasks.Len() != 1 {
		t.Fatalf("retry failed: err=%v rows=%d", m.loadErr[session.Tasks], m.tasks.Len())
	}
}

func TestSessionExpiredReturnsToLogin(t *testing.T) {
	m, _ := newModel(t, &memStore{session: true})
	boot(t, m)

	drain(t, m, func() tea.Msg { return expiredMsg{} })
	if m.form == nil || m.form.kind != formAuth {
		t.Fatal("expected login form")
	}
	if m.sess.State().Status != session.LoggedOut {
		t.Error("expected logged out")
	}
	if toast := visibleToast(t, m); toast.Kind != notify.Warning {
		t.Errorf("toast = %+v", toast)
	}

	drain(t, m, func() tea.Msg { return expiredMsg{} })
	if n := m.toasts.Len(); n != 0 {
		t.Errorf("second expiry queued %d more toasts", n)
	}
}

func TestMutationSessionExpired(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	svc.AddTask("Late", service.PriorityMedium, service.StatusPending)
	svc.ToggleTaskErr = apperrors.ErrSessionExpired
	boot(t, m)

	press(t, m, "space")
	if m.form == nil || m.form.kind != formAuth {
		t.Fatal("expected login form after expired session")
	}
}

func TestLogoutIsConfirmed(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true})
	boot(t, m)

	press(t, m, "L")
	if !m.gate.Open() {
		t.Fatal("expected confirmation")
	}
	press(t, m, "esc")
	if svc.Logouts != 0 {
		t.Fatal("logged out without confirming")
	}

	press(t, m, "L")
	press(t, m, "enter")
	if svc.Logouts != 1 {
		t.Fatalf("logouts = %d, want 1", svc.Logouts)
	}
	if m.sess.State().Status != session.LoggedOut || m.form == nil || m.form.kind != formAuth {
		t.Error("expected login form after logout")
	}
}

func TestChangePassword(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		m, svc := newModel(t, &memStore{session: true, tab: "profile"})
		boot(t, m)

		press(t, m, "p")
		if m.form == nil || m.form.kind != formPassword {
			t.Fatal("expected password form")
		}
		drain(t, m, m.submit(&activeForm{kind: formPassword, values: &formValues{
			password: "password123", next: "better-secret", again: "better-secret",
		}}))
		if !m.gate.Open() {
			t.Fatal("expected confirmation")
		}
		press(t, m, "enter")

		if toast := visibleToast(t, m); toast.Text != "Password changed." {
			t.Errorf("toast = %q", toast.Text)
		}
		if err := svc.ChangePassword(context.Background(), "better-secret", "another-one"); err != nil {
			t.Errorf("new password not in effect: %v", err)
		}
	})

	t.Run("wrong current password", func(t *testing.T) {
		m, _ := newModel(t, &memStore{session: true, tab: "profile"})
		boot(t, m)

		drain(t, m, m.submit(&activeForm{kind: formPassword, values: &formValues{
			password: "not-it-at-all", next: "better-secret", again: "better-secret",
		}}))
		press(t, m, "y")

		toast := visibleToast(t, m)
		if toast.Kind != notify.Error || toast.Text != "Current password is incorrect" {
			t.Errorf("toast = %+v", toast)
		}
	})

	t.Run("same password rejected before asking", func(t *testing.T) {
		m, _ := newModel(t, &memStore{session: true, tab: "profile"})
		boot(t, m)

		drain(t, m, m.submit(&activeForm{kind: formPassword, values: &formValues{
			password: "password123", next: "password123", again: "password123",
		}}))
		if m.gate.Open() {
			t.Error("invalid change should not ask for confirmation")
		}
		if toast := visibleToast(t, m); toast.Kind != notify.Warning {
			t.Errorf("toast = %+v", toast)
		}
	})
}

func TestTaskForm(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "tasks"})
	boot(t, m)

	press(t, m, "a")
	if m.form == nil || m.form.kind != formTask {
		t.Fatal("expected task form")
	}
	press(t, m, "esc")
	if m.form != nil {
		t.Fatal("esc should close the form")
	}

	drain(t, m, m.submit(&activeForm{kind: formTask, values: &formValues{
		title: "  Buy milk ", priority: "HIGH", notes: "2%",
	}}))
	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.Priority != service.PriorityHigh || got.Description == nil || *got.Description != "2%" {
		t.Errorf("created %+v", got)
	}
	if m.tasks.Len() != 1 {
		t.Error("list not reloaded after create")
	}

	press(t, m, "e")
	if m.form == nil || m.form.values.id != got.ID || m.form.values.title != "Buy milk" {
		t.Fatalf("edit form = %+v", m.form)
	}
}

func TestHabitRename(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true, tab: "habits"})
	h := svc.AddHabit("Run", 0, false)
	boot(t, m)

	drain(t, m, m.submit(&activeForm{kind: formHabit, values: &formValues{id: h.ID, name: "Run 5k"}}))
	if got := svc.Habits()[0].Name; got != "Run 5k" {
		t.Errorf("name = %q", got)
	}
	if toast := visibleToast(t, m); toast.Text != "Habit renamed." {
		t.Errorf("toast = %q", toast.Text)
	}
}

func TestDashboard(t *testing.T) {
	m, svc := newModel(t, &memStore{session: true})
	svc.AddTask("Done", service.PriorityMedium, service.StatusCompleted)
	boot(t, m)

	if !m.overview {
		t.Fatal("overview not loaded")
	}
	if !strings.Contains(m.View(), "No weekly report yet") {
		t.Errorf("missing empty report hint:\n%s", m.View())
	}

	press(t, m, "g")
	if toast := visibleToast(t, m); !strings.Contains(toast.Text, "Score 42/100") {
		t.Errorf("toast = %q", toast.Text)
	}
	if ov := m.sess.Overview(); ov.Report == nil || ov.Report.Score != 42 {
		t.Errorf("report not reloaded: %+v", ov.Report)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, &memStore{session: true})
	boot(t, m)

	if !press(t, m, "q") {
		t.Error("q should quit")
	}
}

func TestToastsAreSerialized(t *testing.T) {
	m, _ := newModel(t, &memStore{session: true})
	boot(t, m)

	m.toast("first", notify.Info)
	m.toast("second", notify.Info)
	if got := visibleToast(t, m); got.Text != "first" {
		t.Fatalf("visible = %q", got.Text)
	}
	m.Update(toastMsg{})
	if _, ok := m.toasts.Visible(); ok {
		t.Fatal("expected a gap between toasts")
	}
	m.Update(toastMsg{})
	if got := visibleToast(t, m); got.Text != "second" {
		t.Fatalf("visible = %q", got.Text)
	}
}
