// Package confirm implements a single-slot confirmation gate: an action is
// deferred until the user confirms it, or dropped when they dismiss it.
package confirm

import "sync"

// Request describes one confirmation. OnConfirm runs only on Confirm.
type Request[R any] struct {
	Title        string
	Message      string
	ConfirmLabel string
	Dangerous    bool
	OnConfirm    func() R
}

// Label returns ConfirmLabel, defaulting to "Confirm".
func (r Request[R]) Label() string {
	if r.ConfirmLabel == "" {
		return "Confirm"
	}
	return r.ConfirmLabel
}

// Gate holds at most one pending Request. A new Request replaces the pending
// one without running it.
type Gate[R any] struct {
	mu      sync.Mutex
	pending *Request[R]
}

// Request opens the gate with req, discarding any pending request.
func (g *Gate[R]) Request(req Request[R]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &req
}

// Confirm closes the gate and runs the pending action. ok is false when
// nothing was pending. The gate is cleared before the action runs, so the
// action may open a new request.
func (g *Gate[R]) Confirm() (result R, ok bool) {
	g.mu.Lock()
	req := g.pending
	g.pending = nil
	g.mu.Unlock()

	if req == nil {
		return result, false
	}
	if req.OnConfirm != nil {
		result = req.OnConfirm()
	}
	return result, true
}

// Dismiss closes the gate without running the pending action.
func (g *Gate[R]) Dismiss() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
}

// Pending returns the open request, if any.
func (g *Gate[R]) Pending() (Request[R], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Request[R]{}, false
	}
	return *g.pending, true
}

// Open reports whether a request is pending.
func (g *Gate[R]) Open() bool {
	_, ok := g.Pending()
	return ok
}
