// Package session owns the logged-in/logged-out state, the active tab and
// the per-tab loaders.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"lifeos/internal/apperrors"
	"lifeos/internal/confirm"
	"lifeos/internal/logging"
	"lifeos/internal/pager"
	"lifeos/internal/service"
)

// Tab is a top-level view.
type Tab string

// Tabs, in display order.
const (
	Dashboard Tab = "dashboard"
	Tasks     Tab = "tasks"
	Habits    Tab = "habits"
	Profile   Tab = "profile"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{Dashboard, Tasks, Habits, Profile}

// ParseTab returns the tab named s, or Dashboard for anything unknown.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return Dashboard, false
}

// Status is the authentication state.
type Status int

const (
	LoggedOut Status = iota
	LoggedIn
)

func (s Status) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// State is a snapshot of the controller.
type State struct {
	Status Status
	Tab    Tab
}

// Store persists the session presence and the last active tab.
type Store interface {
	HasSession() bool
	Tab() string
	SetTab(tab string) error
}

// Overview is what the dashboard tab shows. Report is nil when the server
// has none yet.
type Overview struct {
	Dashboard service.Dashboard
	Report    *service.Report
	ReportErr error
}

// Trigger runs the loader of a tab.
type Trigger func(ctx context.Context) error

// Controller is the session and navigation state machine.
type Controller struct {
	svc   service.Service
	store Store
	lists pager.Registry
	log   hclog.Logger

	mu       sync.Mutex
	state    State
	overview Overview
}

// New creates a Controller. lists must hold the tasks and habits controllers.
func New(svc service.Service, store Store, lists pager.Registry, log hclog.Logger) *Controller {
	return &Controller{
		svc:   svc,
		store: store,
		lists: lists,
		log:   logging.OrDiscard(log).Named("session"),
		state: State{Status: LoggedOut, Tab: Dashboard},
	}
}

// Boot reads the persisted session and tab.
func (c *Controller) Boot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Tab = c.storedTab()
	if c.store.HasSession() {
		c.state.Status = LoggedIn
	} else {
		c.state.Status = LoggedOut
	}
	c.log.Debug("boot", "status", c.state.Status, "tab", c.state.Tab)
	return c.state
}

func (c *Controller) storedTab() Tab {
	tab, ok := ParseTab(c.store.Tab())
	if !ok && c.store.Tab() != "" {
		c.log.Warn("unknown stored tab", "tab", c.store.Tab())
	}
	return tab
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login authenticates and enters the last active tab.
func (c *Controller) Login(ctx context.Context, email, password string) (State, error) {
	if err := c.svc.Login(ctx, email, password); err != nil {
		return c.State(), err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Status: LoggedIn, Tab: c.storedTab()}
	return c.state, nil
}

// Register creates the account and logs in with the same credentials.
func (c *Controller) Register(ctx context.Context, name, email, password string) (State, error) {
	if _, err := c.svc.Register(ctx, name, email, password); err != nil {
		return c.State(), err
	}
	return c.Login(ctx, email, password)
}

// SwitchTab persists tab and returns its loader. In-flight loads of the
// previous tab are not cancelled.
func (c *Controller) SwitchTab(tab Tab) (Trigger, error) {
	if _, ok := ParseTab(string(tab)); !ok {
		return nil, fmt.Errorf("unknown tab %q", tab)
	}
	c.mu.Lock()
	if c.state.Status != LoggedIn {
		c.mu.Unlock()
		return nil, apperrors.ErrNotLoggedIn
	}
	c.state.Tab = tab
	c.mu.Unlock()

	if err := c.store.SetTab(string(tab)); err != nil {
		c.log.Warn("failed to persist tab", "tab", tab, "error", err)
	}
	return c.loader(tab), nil
}

// Load runs the loader of tab.
func (c *Controller) Load(ctx context.Context, tab Tab) error {
	return c.loader(tab)(ctx)
}

func (c *Controller) loader(tab Tab) Trigger {
	switch tab {
	case Tasks:
		return c.reload(pager.Tasks)
	case Habits:
		return c.reload(pager.Habits)
	case Dashboard:
		return c.loadOverview
	default:
		return func(context.Context) error { return nil }
	}
}

func (c *Controller) reload(kind pager.Kind) Trigger {
	return func(ctx context.Context) error {
		l, err := c.lists.Get(kind)
		if err != nil {
			return err
		}
		return l.Reload(ctx)
	}
}

// loadOverview fetches the dashboard metrics and the latest report
// concurrently. A missing report is not an error.
func (c *Controller) loadOverview(ctx context.Context) error {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.svc.Dashboard(gctx)
		if err != nil {
			return err
		}
		ov.Dashboard = d
		return nil
	})
	g.Go(func() error {
		r, err := c.svc.LatestReport(gctx)
		switch {
		case err == nil:
			ov.Report = &r
		case errors.Is(err, apperrors.ErrNoReport):
		case errors.Is(err, apperrors.ErrSessionExpired):
			return err
		default:
			c.log.Warn("report load failed", "error", err)
			ov.ReportErr = err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.Warn("dashboard load failed", "error", err)
		return err
	}
	c.mu.Lock()
	c.overview = ov
	c.mu.Unlock()
	return nil
}

// Overview returns the last loaded dashboard data.
func (c *Controller) Overview() Overview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overview
}

// Logout ends the session. Callers gate it with LogoutRequest.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.svc.Logout(ctx)
	c.Expire()
	return err
}

// Expire moves to LoggedOut without contacting the server. It is the
// target of the request client's session-expired hook.
func (c *Controller) Expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == LoggedIn {
		c.log.Info("session ended")
	}
	c.state.Status = LoggedOut
	c.overview = Overview{}
}

// LogoutRequest builds the confirmation that gates Logout. wrap receives
// the deferred logout and turns it into the gate's result type, so a caller
// may run it in place or hand it to a worker.
func LogoutRequest[R any](ctx context.Context, c *Controller, wrap func(logout func() error) R) confirm.Request[R] {
	return confirm.Request[R]{
		Title:        "Log out",
		Message:      "You will need to sign in again.",
		ConfirmLabel: "Log out",
		OnConfirm: func() R {
			return wrap(func() error { return c.Logout(ctx) })
		},
	}
}
