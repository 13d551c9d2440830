// Package pager keeps one incrementally loaded list per entity kind.
//
// Page 1 replaces the list, sorted with the kind's comparator. Later pages
// append their own sorted batch without re-sorting what is already there.
// Every load takes a sequence number; a response that arrives after a newer
// load was started is discarded.
package pager

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"

	"lifeos/internal/logging"
	"lifeos/internal/service"
)

// PageSize is the fixed number of items requested per page.
const PageSize = 20

// ErrStale is returned by Load when a newer load superseded it. The list is
// unchanged.
var ErrStale = errors.New("stale page discarded")

// Kind names a paginated entity kind.
type Kind string

// Known kinds.
const (
	Tasks  Kind = "tasks"
	Habits Kind = "habits"
)

// FetchFunc fetches one page.
type FetchFunc[T any] func(ctx context.Context, page, limit int) (service.Page[T], error)

// State is the pagination cursor of a list.
type State struct {
	CurrentPage int
	HasNext     bool
	Loaded      bool
}

// Controller owns the rendered list of one kind. Safe for concurrent use.
type Controller[T any] struct {
	kind  Kind
	fetch FetchFunc[T]
	cmp   func(a, b T) int
	log   hclog.Logger

	mu    sync.Mutex
	seq   uint64
	items []T
	state State
	err   error
}

// New returns an empty controller. cmp may be nil to keep server order.
func New[T any](kind Kind, fetch FetchFunc[T], cmp func(a, b T) int, log hclog.Logger) *Controller[T] {
	return &Controller[T]{
		kind:  kind,
		fetch: fetch,
		cmp:   cmp,
		log:   logging.OrDiscard(log).Named("pager").With("kind", string(kind)),
		state: State{CurrentPage: 1},
	}
}

// Kind returns the entity kind.
func (c *Controller[T]) Kind() Kind { return c.kind }

// Load fetches page (1-based). On failure the rendered list is left as is,
// the error is logged and kept for Err.
func (c *Controller[T]) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	p, err := c.fetch(ctx, page, PageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("discarding stale page", "page", page, "seq", seq, "latest", c.seq)
		return ErrStale
	}
	if err != nil {
		c.err = err
		c.log.Warn("list load failed", "page", page, "error", err)
		return err
	}
	c.err = nil

	batch := slices.Clone(p.Items)
	if c.cmp != nil {
		slices.SortStableFunc(batch, c.cmp)
	}
	if page == 1 {
		c.items = batch
	} else {
		c.items = append(c.items, batch...)
	}
	if p.Page > 0 {
		page = p.Page
	}
	c.state = State{CurrentPage: page, HasNext: p.HasNext, Loaded: true}
	return nil
}

// LoadMore fetches the page after the current one.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	return c.Load(ctx, c.State().CurrentPage+1)
}

// Reload discards appended pages and fetches page 1. Used after create,
// edit and toggle.
func (c *Controller[T]) Reload(ctx context.Context) error {
	return c.Load(ctx, 1)
}

// AfterDelete resets the cursor to page 1 and reloads.
func (c *Controller[T]) AfterDelete(ctx context.Context) error {
	c.mu.Lock()
	c.state.CurrentPage = 1
	c.mu.Unlock()
	return c.Load(ctx, 1)
}

// Items returns a copy of the rendered list.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// At returns the item at row i (0-based).
func (c *Controller[T]) At(i int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if i < 0 || i >= len(c.items) {
		return zero, false
	}
	return c.items[i], true
}

// Len returns the number of rendered items.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// State returns the pagination cursor.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last applied load, or nil.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
