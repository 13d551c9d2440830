package pager

import (
	"context"
	"fmt"
	"slices"
)

// Lister is the kind-independent surface of a Controller.
type Lister interface {
	Kind() Kind
	Load(ctx context.Context, page int) error
	LoadMore(ctx context.Context) error
	Reload(ctx context.Context) error
	AfterDelete(ctx context.Context) error
	State() State
	Len() int
	Err() error
}

// Registry maps each kind to its controller.
type Registry map[Kind]Lister

// Register adds l under its kind.
func (r Registry) Register(l Lister) {
	r[l.Kind()] = l
}

// Get returns the controller for kind.
func (r Registry) Get(kind Kind) (Lister, error) {
	l, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("no list registered for %q", kind)
	}
	return l, nil
}

// LoadMore routes a "load more" request to the kind's controller.
func (r Registry) LoadMore(ctx context.Context, kind Kind) error {
	l, err := r.Get(kind)
	if err != nil {
		return err
	}
	return l.LoadMore(ctx)
}

// Kinds returns the registered kinds in name order.
func (r Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
