package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/output"
	"lifeos/internal/pager"
	"lifeos/internal/service"
)

func init() {
	Register(&TasksCmd{})
	Register(&ShowCmd{})
}

// TasksCmd implements the tasks command.
type TasksCmd struct {
	page int
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "List tasks" }
func (c *TasksCmd) Usage() string     { return "lifeos tasks [--page <n>]" }
func (c *TasksCmd) NeedsAuth() bool   { return true }

func (c *TasksCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.page, "page", 1, "page number")
}

// SetPage sets the page (for testing).
func (c *TasksCmd) SetPage(page int) {
	c.page = page
}

func (c *TasksCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}
	return listPage(ctx, c.page, taskList(svc), "tasks", output.FormatTaskLine, out, errOut)
}

// listPage prints one page of a listing with running row numbers.
func listPage[T any](ctx context.Context, page int, ctrl *pager.Controller[T], noun string, line func(io.Writer, int, T), out, errOut io.Writer) int {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return userError(errOut, "invalid page: %d", page)
	}
	if err := ctrl.Load(ctx, page); err != nil {
		return reportError(errOut, err)
	}

	items := ctrl.Items()
	if len(items) == 0 {
		if page == 1 {
			fmt.Fprintf(out, "no %s\n", noun)
		} else {
			fmt.Fprintf(out, "no %s on page %d\n", noun, page)
		}
		return exitcode.Success
	}

	first := (page-1)*pager.PageSize + 1
	for i, item := range items {
		line(out, first+i, item)
	}
	st := ctrl.State()
	output.FormatMore(out, st.CurrentPage, st.HasNext)
	return exitcode.Success
}

// ShowCmd implements the show command.
type ShowCmd struct {
	// Now is the clock for relative times. Defaults to time.Now.
	Now func() time.Time
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show one task in full" }
func (c *ShowCmd) Usage() string     { return "lifeos show <n>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	task, err := taskRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	output.FormatTask(out, task, now())
	return exitcode.Success
}
