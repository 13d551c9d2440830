// Package lifeosapi implements the service.Service interface over the LifeOS REST API.
package lifeosapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"lifeos/internal/apiclient"
	"lifeos/internal/apperrors"
	"lifeos/internal/logging"
	"lifeos/internal/service"
)

// Endpoints, relative to the API root.
const (
	loginPath          = "/login"
	logoutPath         = "/logout"
	usersPath          = "/users/"
	changePasswordPath = "/users/change-password"
	tasksPath          = "/tasks/"
	habitsPath         = "/habits/"
	dashboardPath      = "/dashboard/"
	latestReportPath   = "/reports/latest"
	generateReportPath = "/reports/generate"
)

// DefaultPageSize is the page size used when callers pass limit <= 0.
const DefaultPageSize = 20

// Client implements service.Service using the LifeOS REST API.
type Client struct {
	api *apiclient.Client
	log hclog.Logger
}

// New creates a Client on top of an authenticated request client.
func New(api *apiclient.Client, log hclog.Logger) *Client {
	return &Client{
		api: api,
		log: logging.OrDiscard(log).Named("lifeosapi"),
	}
}

// Login exchanges credentials for a token pair using the OAuth2 password
// grant and stores it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := service.ValidateCredentials(email, password); err != nil {
		return err
	}
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.api.BaseURL() + loginPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, c.api.Timeout())
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.api.HTTPClient())

	tok, err := conf.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return loginError(err)
	}
	if err := c.api.Store().Save(tok.AccessToken, tok.RefreshToken); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.log.Info("logged in", "email", email)
	return nil
}

func loginError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		detail := apiclient.Detail(re.Body)
		if detail == "" {
			detail = re.ErrorDescription
		}
		return &apperrors.ServerRejected{Status: re.Response.StatusCode, Detail: detail}
	}
	return &apperrors.RequestFailed{Op: "POST " + loginPath, Err: err}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) (service.User, error) {
	var u service.User
	if err := service.ValidateRegistration(name, email, password); err != nil {
		return u, err
	}
	err := c.call(ctx, usersPath, apiclient.Options{
		Method:    http.MethodPost,
		JSON:      map[string]string{"name": name, "email": email, "password": password},
		Anonymous: true,
	}, &u)
	return u, err
}

// Logout revokes the refresh token server-side and clears the local session.
// The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	store := c.api.Store()
	sess := store.Get()
	if sess.RefreshToken != "" {
		// Anonymous with an explicit bearer: an unauthorized answer here must
		// not start a refresh or fire the expiry hook.
		err := c.call(ctx, logoutPath, apiclient.Options{
			Method:    http.MethodPost,
			JSON:      map[string]string{"refresh_token": sess.RefreshToken},
			Header:    http.Header{"Authorization": {"Bearer " + sess.AccessToken}},
			Anonymous: true,
		}, nil)
		if err != nil {
			c.log.Warn("server logout failed", "error", err)
		}
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.log.Info("logged out")
	return nil
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	if err := service.ValidatePasswordChange(current, next); err != nil {
		return err
	}
	return c.call(ctx, changePasswordPath, apiclient.Options{
		Method: http.MethodPost,
		JSON:   map[string]string{"current_password": current, "new_password": next},
	}, nil)
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, page, limit int) (service.Page[service.Task], error) {
	var p service.Page[service.Task]
	err := c.call(ctx, tasksPath, apiclient.Options{Query: pageQuery(page, limit)}, &p)
	return p, err
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var t service.Task
	in.Priority = service.NormalizePriority(in.Priority)
	if err := in.Validate(); err != nil {
		return t, err
	}
	err := c.call(ctx, tasksPath, apiclient.Options{Method: http.MethodPost, JSON: in}, &t)
	return t, err
}

// UpdateTask edits a task. The server applies the title only.
func (c *Client) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	var t service.Task
	in.Priority = service.NormalizePriority(in.Priority)
	if err := in.Validate(); err != nil {
		return t, err
	}
	err := c.call(ctx, tasksPath+strconv.Itoa(id), apiclient.Options{Method: http.MethodPut, JSON: in}, &t)
	return t, err
}

// ToggleTask flips a task between pending and completed.
func (c *Client) ToggleTask(ctx context.Context, id int) (service.Task, error) {
	var t service.Task
	err := c.call(ctx, tasksPath+strconv.Itoa(id)+"/complete", apiclient.Options{Method: http.MethodPut}, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.call(ctx, tasksPath+strconv.Itoa(id), apiclient.Options{Method: http.MethodDelete}, nil)
}

// ListHabits returns one page of habits.
func (c *Client) ListHabits(ctx context.Context, page, limit int) (service.Page[service.Habit], error) {
	var p service.Page[service.Habit]
	err := c.call(ctx, habitsPath, apiclient.Options{Query: pageQuery(page, limit)}, &p)
	return p, err
}

// CreateHabit creates a new habit.
func (c *Client) CreateHabit(ctx context.Context, in service.HabitInput) (service.Habit, error) {
	var h service.Habit
	if in.TargetType == "" {
		in.TargetType = service.DefaultTargetType
	}
	if err := in.Validate(); err != nil {
		return h, err
	}
	err := c.call(ctx, habitsPath, apiclient.Options{Method: http.MethodPost, JSON: in}, &h)
	return h, err
}

// UpdateHabit renames a habit.
func (c *Client) UpdateHabit(ctx context.Context, id int, in service.HabitInput) (service.Habit, error) {
	var h service.Habit
	if in.TargetType == "" {
		in.TargetType = service.DefaultTargetType
	}
	if err := in.Validate(); err != nil {
		return h, err
	}
	err := c.call(ctx, habitsPath+strconv.Itoa(id), apiclient.Options{Method: http.MethodPut, JSON: in}, &h)
	return h, err
}

// DeleteHabit deletes a habit.
func (c *Client) DeleteHabit(ctx context.Context, id int) error {
	return c.call(ctx, habitsPath+strconv.Itoa(id), apiclient.Options{Method: http.MethodDelete}, nil)
}

// LogHabit records a check-in. The server upserts by (habit, day).
func (c *Client) LogHabit(ctx context.Context, id int, day service.Date, completed bool) (service.HabitLog, error) {
	var l service.HabitLog
	body := struct {
		Date      service.Date `json:"date"`
		Completed bool         `json:"completed"`
	}{day, completed}
	err := c.call(ctx, habitsPath+strconv.Itoa(id)+"/logs/", apiclient.Options{Method: http.MethodPost, JSON: body}, &l)
	return l, err
}

// Dashboard returns aggregate metrics.
func (c *Client) Dashboard(ctx context.Context) (service.Dashboard, error) {
	var d service.Dashboard
	err := c.call(ctx, dashboardPath, apiclient.Options{}, &d)
	return d, err
}

// LatestReport returns the newest weekly report.
func (c *Client) LatestReport(ctx context.Context) (service.Report, error) {
	var r service.Report
	err := c.call(ctx, latestReportPath, apiclient.Options{}, &r)
	if apperrors.IsStatus(err, http.StatusNotFound) {
		return r, apperrors.ErrNoReport
	}
	return r, err
}

// GenerateReport builds this week's report on demand.
func (c *Client) GenerateReport(ctx context.Context) (service.GeneratedReport, error) {
	var g service.GeneratedReport
	err := c.call(ctx, generateReportPath, apiclient.Options{Method: http.MethodPost}, &g)
	return g, err
}

// call performs an authenticated request and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, endpoint string, opts apiclient.Options, out any) error {
	resp, err := c.api.Do(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func pageQuery(page, limit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

var _ service.Service = (*Client)(nil)
