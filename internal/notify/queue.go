// Package notify serializes transient toast messages into a single visible
// slot.
//
// Queue holds no timers. Each call returns a Step telling the driver what to
// render and how long to wait before calling Advance. The cycle per toast is
// show for the display duration, hide for the cooldown, then the next toast.
package notify

import (
	"time"
)

// Kind classifies a toast.
type Kind int

const (
	Info Kind = iota
	Success
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Toast is one message.
type Toast struct {
	Text string
	Kind Kind
}

// Action is what the driver must do for a Step.
type Action int

const (
	// None means nothing changes; no timer is needed.
	None Action = iota
	// Show means Toast becomes visible; call Advance after After.
	Show
	// Hide means the visible toast is removed; call Advance after After.
	Hide
)

// Step is the result of a state transition.
type Step struct {
	Action Action
	Toast  Toast
	After  time.Duration
}

// Default durations.
const (
	DefaultDisplay  = 3 * time.Second
	DefaultCooldown = 300 * time.Millisecond
)

type phase int

const (
	idle phase = iota
	showing
	cooling
)

// Queue is a FIFO of toasts with one visible slot. Not safe for concurrent
// use; the owner serializes calls.
type Queue struct {
	display  time.Duration
	cooldown time.Duration
	pending  []Toast
	current  Toast
	phase    phase
}

// New returns an idle Queue. Non-positive durations fall back to defaults.
func New(display, cooldown time.Duration) *Queue {
	if display <= 0 {
		display = DefaultDisplay
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Queue{display: display, cooldown: cooldown}
}

// Enqueue appends a toast. If the queue was idle it is shown immediately.
func (q *Queue) Enqueue(text string, kind Kind) Step {
	q.pending = append(q.pending, Toast{Text: text, Kind: kind})
	if q.phase != idle {
		return Step{}
	}
	return q.next()
}

// Advance is called when the wait of the previous Step has elapsed.
func (q *Queue) Advance() Step {
	switch q.phase {
	case showing:
		q.phase = cooling
		hidden := q.current
		q.current = Toast{}
		return Step{Action: Hide, Toast: hidden, After: q.cooldown}
	case cooling:
		return q.next()
	}
	return Step{}
}

func (q *Queue) next() Step {
	if len(q.pending) == 0 {
		q.phase = idle
		return Step{}
	}
	q.current = q.pending[0]
	q.pending = q.pending[1:]
	q.phase = showing
	return Step{Action: Show, Toast: q.current, After: q.display}
}

// Visible returns the toast on screen, if any.
func (q *Queue) Visible() (Toast, bool) {
	return q.current, q.phase == showing
}

// Len returns the number of toasts waiting behind the visible one.
func (q *Queue) Len() int { return len(q.pending) }

// Idle reports whether nothing is shown and nothing is waiting for a timer.
func (q *Queue) Idle() bool { return q.phase == idle }
