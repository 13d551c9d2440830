package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"lifeos/internal/pager"
	"lifeos/internal/service"
)

// ErrRowRequired indicates no row number was provided.
var ErrRowRequired = errors.New("row number required")

// errRowOutOfRange is wrapped with the requested number.
var errRowOutOfRange = errors.New("row number out of range")

// ParseRow parses the 1-based row number shown by the list commands.
func ParseRow(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrRowRequired
	}
	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid row number: %s", ref)
	}
	num, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("invalid row number: %s", ref)
	}
	if num < 1 {
		return 0, fmt.Errorf("%w: %d", errRowOutOfRange, num)
	}
	return num, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// resolveRow walks the listing in display order until row num is loaded.
// Numbering matches what the list commands print, page by page.
func resolveRow[T any](ctx context.Context, ctrl *pager.Controller[T], num int) (T, error) {
	var zero T
	if err := ctrl.Load(ctx, 1); err != nil {
		return zero, err
	}
	for ctrl.Len() < num {
		if !ctrl.State().HasNext {
			return zero, fmt.Errorf("%w: %d", errRowOutOfRange, num)
		}
		if err := ctrl.LoadMore(ctx); err != nil {
			return zero, err
		}
	}
	item, _ := ctrl.At(num - 1)
	return item, nil
}

func taskList(svc service.Service) *pager.Controller[service.Task] {
	return pager.New(pager.Tasks, svc.ListTasks, service.CompareTasks, nil)
}

func habitList(svc service.Service) *pager.Controller[service.Habit] {
	return pager.New(pager.Habits, svc.ListHabits, nil, nil)
}

func taskRow(ctx context.Context, svc service.Service, num int) (service.Task, error) {
	return resolveRow(ctx, taskList(svc), num)
}

func habitRow(ctx context.Context, svc service.Service, num int) (service.Habit, error) {
	return resolveRow(ctx, habitList(svc), num)
}

// lookupError reports a failed row lookup.
func lookupError(errOut io.Writer, err error) int {
	if errors.Is(err, errRowOutOfRange) {
		return userError(errOut, "%v", err)
	}
	return reportError(errOut, err)
}
