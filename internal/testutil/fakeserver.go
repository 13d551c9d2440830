package testutil

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"lifeos/internal/service"
)

// APIPrefix is the path the fake server mounts the API under.
const APIPrefix = "/api/v1"

// Route names, usable with Calls and FailNext.
const (
	RouteLogin          = "login"
	RouteRefresh        = "refresh"
	RouteLogout         = "logout"
	RouteRegister       = "register"
	RouteChangePassword = "change-password"
	RouteListTasks      = "tasks.list"
	RouteCreateTask     = "tasks.create"
	RouteToggleTask     = "tasks.toggle"
	RouteUpdateTask     = "tasks.update"
	RouteDeleteTask     = "tasks.delete"
	RouteListHabits     = "habits.list"
	RouteCreateHabit    = "habits.create"
	RouteUpdateHabit    = "habits.update"
	RouteDeleteHabit    = "habits.delete"
	RouteLogHabit       = "habits.log"
	RouteDashboard      = "dashboard"
	RouteLatestReport   = "reports.latest"
	RouteGenerateReport = "reports.generate"
)

// fakeEpoch anchors created_at so that later records sort first.
var fakeEpoch = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

type fakeUser struct {
	user service.User
	hash []byte
}

type fakeHabit struct {
	habit   service.Habit
	deleted bool
	logs    map[string]bool
}

// FakeServer is an in-memory LifeOS REST API for tests. Access tokens and
// refresh tokens are opaque uuids; refresh rotates the pair.
type FakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	nextID  int
	users   map[string]*fakeUser
	access  map[string]int
	refresh map[string]int
	tasks   []service.Task
	habits  []*fakeHabit
	reports map[int]service.Report
	calls   map[string]int
	fail    map[string]int

	// Today is the server's notion of the current day.
	Today func() time.Time
}

// NewFakeServer starts a fake server that is closed when t ends.
func NewFakeServer(t testing.TB) *FakeServer {
	t.Helper()
	s := &FakeServer{
		users:   make(map[string]*fakeUser),
		access:  make(map[string]int),
		refresh: make(map[string]int),
		reports: make(map[int]service.Report),
		calls:   make(map[string]int),
		fail:    make(map[string]int),
		Today:   time.Now,
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root, suitable for apiclient.New.
func (s *FakeServer) BaseURL() string {
	return s.URL + APIPrefix
}

func (s *FakeServer) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(APIPrefix).Subrouter()
	api.Use(s.count)

	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name(RouteLogin)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost).Name(RouteRefresh)
	api.HandleFunc("/logout", s.authed(s.handleLogout)).Methods(http.MethodPost).Name(RouteLogout)
	api.HandleFunc("/users/", s.handleRegister).Methods(http.MethodPost).Name(RouteRegister)
	api.HandleFunc("/users/change-password", s.authed(s.handleChangePassword)).Methods(http.MethodPost).Name(RouteChangePassword)

	api.HandleFunc("/tasks/", s.authed(s.handleListTasks)).Methods(http.MethodGet).Name(RouteListTasks)
	api.HandleFunc("/tasks/", s.authed(s.handleCreateTask)).Methods(http.MethodPost).Name(RouteCreateTask)
	api.HandleFunc("/tasks/{id:[0-9]+}/complete", s.authed(s.handleToggleTask)).Methods(http.MethodPut).Name(RouteToggleTask)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.authed(s.handleUpdateTask)).Methods(http.MethodPut).Name(RouteUpdateTask)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.authed(s.handleDeleteTask)).Methods(http.MethodDelete).Name(RouteDeleteTask)

	api.HandleFunc("/habits/", s.authed(s.handleListHabits)).Methods(http.MethodGet).Name(RouteListHabits)
	api.HandleFunc("/habits/", s.authed(s.handleCreateHabit)).Methods(http.MethodPost).Name(RouteCreateHabit)
	api.HandleFunc("/habits/{id:[0-9]+}", s.authed(s.handleUpdateHabit)).Methods(http.MethodPut).Name(RouteUpdateHabit)
	api.HandleFunc("/habits/{id:[0-9]+}", s.authed(s.handleDeleteHabit)).Methods(http.MethodDelete).Name(RouteDeleteHabit)
	api.HandleFunc("/habits/{id:[0-9]+}/logs/", s.authed(s.handleLogHabit)).Methods(http.MethodPost).Name(RouteLogHabit)

	api.HandleFunc("/dashboard/", s.authed(s.handleDashboard)).Methods(http.MethodGet).Name(RouteDashboard)
	api.HandleFunc("/reports/latest", s.authed(s.handleLatestReport)).Methods(http.MethodGet).Name(RouteLatestReport)
	api.HandleFunc("/reports/generate", s.authed(s.handleGenerateReport)).Methods(http.MethodPost).Name(RouteGenerateReport)
	return r
}

// count records the call and serves a forced failure if one is queued.
func (s *FakeServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.mu.Lock()
		s.calls[name]++
		status, forced := s.fail[name]
		delete(s.fail, name)
		s.mu.Unlock()
		if forced {
			writeDetail(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID int)

func (s *FakeServer) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		uid, valid := s.access[tok]
		s.mu.Unlock()
		if !ok || !valid {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		h(w, r, uid)
	}
}

// Calls returns how many requests matched the named route.
func (s *FakeServer) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next request to route answer with status.
func (s *FakeServer) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = status
}

// AddUser registers an account directly.
func (s *FakeServer) AddUser(name, email, password string) service.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password)
}

func (s *FakeServer) addUserLocked(name, email, password string) service.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	id := s.id()
	u := service.User{ID: id, Name: name, Email: email, Role: "user", CreatedAt: s.stamp(id)}
	s.users[email] = &fakeUser{user: u, hash: hash}
	return u
}

// IssueTokens mints a token pair for an existing user.
func (s *FakeServer) IssueTokens(email string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(s.users[email].user.ID)
}

func (s *FakeServer) issueLocked(uid int) (string, string) {
	access, refresh := uuid.NewString(), uuid.NewString()
	s.access[access] = uid
	s.refresh[refresh] = uid
	return access, refresh
}

// ExpireAccessTokens invalidates every access token; refresh tokens stay valid.
func (s *FakeServer) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

// RevokeRefreshTokens invalidates every refresh token.
func (s *FakeServer) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// RefreshTokens returns how many refresh tokens are live.
func (s *FakeServer) RefreshTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refresh)
}

// AddTask stores a task for the user owning email.
func (s *FakeServer) AddTask(email, title, priority, status string) service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	t := service.Task{
		ID: id, Title: title, Priority: priority, Status: status,
		CreatedAt: s.stamp(id), UserID: s.users[email].user.ID,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Task returns the stored task with id.
func (s *FakeServer) Task(id int) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id, 0)
	if i < 0 {
		return service.Task{}, false
	}
	return s.tasks[i], true
}

// AddHabit stores a habit for the user owning email.
func (s *FakeServer) AddHabit(email, name string) service.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addHabitLocked(s.users[email].user.ID, name, service.DefaultTargetType)
}

func (s *FakeServer) addHabitLocked(uid int, name, target string) service.Habit {
	h := &fakeHabit{
		habit: service.Habit{ID: s.id(), Name: name, TargetType: target, UserID: uid},
		logs:  make(map[string]bool),
	}
	s.habits = append(s.habits, h)
	return h.habit
}

// SetReport stores the latest weekly report for the user owning email.
func (s *FakeServer) SetReport(email string, r service.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UserID = s.users[email].user.ID
	s.reports[r.UserID] = r
}

func (s *FakeServer) id() int {
	s.nextID++
	return s.nextID
}

func (s *FakeServer) stamp(id int) service.Timestamp {
	return service.Timestamp{Time: fakeEpoch.Add(time.Duration(id) * time.Minute)}
}

// Handlers.

func (s *FakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	access, refresh := s.issueLocked(u.user.ID)
	writeJSON(w, http.StatusOK, tokenPair(access, refresh))
}

func (s *FakeServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.refresh[in.RefreshToken]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	delete(s.refresh, in.RefreshToken)
	access, refresh := s.issueLocked(uid)
	writeJSON(w, http.StatusOK, tokenPair(access, refresh))
}

func (s *FakeServer) handleLogout(w http.ResponseWriter, r *http.Request, _ int) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	delete(s.refresh, in.RefreshToken)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, message("Logged out successfully"))
}

func (s *FakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if !strings.Contains(in.Email, "@") {
		writeValidation(w, "email", "value is not a valid email address")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[in.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, s.addUserLocked(in.Name, in.Email, in.Password))
}

func (s *FakeServer) handleChangePassword(w http.ResponseWriter, r *http.Request, uid int) {
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.user.ID != uid {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.hash, []byte(in.CurrentPassword)) != nil {
			writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.MinCost)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		u.hash = hash
		writeJSON(w, http.StatusOK, message("Password updated successfully"))
		return
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (s *FakeServer) handleListTasks(w http.ResponseWriter, r *http.Request, uid int) {
	page, limit := pageParams(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var own []service.Task
	for _, t := range s.tasks {
		if t.UserID == uid {
			own = append(own, t)
		}
	}
	slices.SortFunc(own, func(a, b service.Task) int { return b.CreatedAt.Compare(a.CreatedAt.Time) })
	writeJSON(w, http.StatusOK, pageOf(own, page, limit))
}

type taskBody struct {
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	DueDate     *service.Timestamp `json:"due_date"`
	Priority    string             `json:"priority"`
}

func (s *FakeServer) handleCreateTask(w http.ResponseWriter, r *http.Request, uid int) {
	var in taskBody
	if !readJSON(w, r, &in) {
		return
	}
	if in.Title == "" {
		writeValidation(w, "title", "Field required")
		return
	}
	if in.Priority == "" {
		in.Priority = service.PriorityMedium
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	t := service.Task{
		ID: id, Title: in.Title, Description: in.Description, DueDate: in.DueDate,
		Priority: in.Priority, Status: service.StatusPending, CreatedAt: s.stamp(id), UserID: uid,
	}
	s.tasks = append(s.tasks, t)
	writeJSON(w, http.StatusOK, t)
}

func (s *FakeServer) handleToggleTask(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(pathID(r), uid)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	if s.tasks[i].Completed() {
		s.tasks[i].Status = service.StatusPending
	} else {
		s.tasks[i].Status = service.StatusCompleted
	}
	writeJSON(w, http.StatusOK, s.tasks[i])
}

func (s *FakeServer) handleUpdateTask(w http.ResponseWriter, r *http.Request, uid int) {
	var in taskBody
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(pathID(r), uid)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	s.tasks[i].Title = in.Title
	writeJSON(w, http.StatusOK, s.tasks[i])
}

func (s *FakeServer) handleDeleteTask(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(pathID(r), uid)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	writeJSON(w, http.StatusOK, message("Task deleted"))
}

// taskIndex finds a task by id; uid 0 matches any owner.
func (s *FakeServer) taskIndex(id, uid int) int {
	return slices.IndexFunc(s.tasks, func(t service.Task) bool {
		return t.ID == id && (uid == 0 || t.UserID == uid)
	})
}

func (s *FakeServer) handleListHabits(w http.ResponseWriter, r *http.Request, uid int) {
	page, limit := pageParams(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var own []service.Habit
	for i := len(s.habits) - 1; i >= 0; i-- {
		h := s.habits[i]
		if h.habit.UserID == uid && !h.deleted {
			own = append(own, s.withStreak(h))
		}
	}
	writeJSON(w, http.StatusOK, pageOf(own, page, limit))
}

func (s *FakeServer) withStreak(h *fakeHabit) service.Habit {
	out := h.habit
	day := service.NewDate(s.Today())
	out.IsLoggedToday = h.logs[day.String()]
	if !out.IsLoggedToday {
		day = service.NewDate(day.AddDate(0, 0, -1))
	}
	for h.logs[day.String()] {
		out.CurrentStreak++
		day = service.NewDate(day.AddDate(0, 0, -1))
	}
	return out
}

type habitBody struct {
	Name       string `json:"name"`
	TargetType string `json:"target_type"`
}

func (s *FakeServer) handleCreateHabit(w http.ResponseWriter, r *http.Request, uid int) {
	var in habitBody
	if !readJSON(w, r, &in) {
		return
	}
	if in.TargetType == "" {
		in.TargetType = service.DefaultTargetType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.addHabitLocked(uid, in.Name, in.TargetType))
}

func (s *FakeServer) handleUpdateHabit(w http.ResponseWriter, r *http.Request, uid int) {
	var in habitBody
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.habit(pathID(r), uid)
	if h == nil {
		writeDetail(w, http.StatusNotFound, "Habit not found")
		return
	}
	h.habit.Name = in.Name
	writeJSON(w, http.StatusOK, h.habit)
}

func (s *FakeServer) handleDeleteHabit(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.habit(pathID(r), uid)
	if h == nil {
		writeDetail(w, http.StatusNotFound, "Habit not found")
		return
	}
	h.deleted = true
	writeJSON(w, http.StatusOK, message("Habit deleted"))
}

func (s *FakeServer) handleLogHabit(w http.ResponseWriter, r *http.Request, uid int) {
	in := struct {
		Date      service.Date `json:"date"`
		Completed bool         `json:"completed"`
	}{Completed: true}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.habit(pathID(r), uid)
	if h == nil {
		writeDetail(w, http.StatusNotFound, "Habit not found")
		return
	}
	h.logs[in.Date.String()] = in.Completed
	writeJSON(w, http.StatusOK, service.HabitLog{ID: s.id(), HabitID: h.habit.ID, Date: in.Date, Completed: in.Completed})
}

func (s *FakeServer) habit(id, uid int) *fakeHabit {
	for _, h := range s.habits {
		if h.habit.ID == id && h.habit.UserID == uid && !h.deleted {
			return h
		}
	}
	return nil
}

func (s *FakeServer) handleDashboard(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var d service.Dashboard
	for _, t := range s.tasks {
		if t.UserID != uid {
			continue
		}
		d.TotalTasks++
		if t.Completed() {
			d.CompletedTasks++
		}
	}
	d.PendingTasks = d.TotalTasks - d.CompletedTasks
	if d.TotalTasks > 0 {
		d.TaskCompletionRate = float64(d.CompletedTasks*1000/d.TotalTasks) / 10
	}
	d.CurrentStreaks = []service.Streak{}
	for _, fh := range s.habits {
		if fh.habit.UserID != uid || fh.deleted {
			continue
		}
		h := s.withStreak(fh)
		d.TotalHabits++
		if h.IsLoggedToday {
			d.HabitsLoggedToday++
		}
		d.CurrentStreaks = append(d.CurrentStreaks, service.Streak{Name: h.Name, Streak: h.CurrentStreak, LoggedToday: h.IsLoggedToday})
	}
	d.ProductivityScore = int(d.TaskCompletionRate*0.6 + d.HabitConsistencyRate*0.4 + 0.5)
	writeJSON(w, http.StatusOK, d)
}

func (s *FakeServer) handleLatestReport(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[uid]
	if !ok {
		writeDetail(w, http.StatusNotFound, "No report yet. Check back after Monday!")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *FakeServer) handleGenerateReport(w http.ResponseWriter, r *http.Request, uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	today := service.NewDate(s.Today())
	start := service.NewDate(today.AddDate(0, 0, -int((today.Weekday()+6)%7)))
	rep := service.Report{
		ID: id, UserID: uid, WeekStart: start, WeekEnd: service.NewDate(start.AddDate(0, 0, 6)),
		Report: "Generated report.", Score: 42, CreatedAt: s.stamp(id),
	}
	s.reports[uid] = rep
	writeJSON(w, http.StatusOK, service.GeneratedReport{Message: "Report generated!", Score: rep.Score})
}

// Wire helpers.

func tokenPair(access, refresh string) map[string]string {
	return map[string]string{"access_token": access, "refresh_token": refresh, "token_type": "bearer"}
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, "body", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}
