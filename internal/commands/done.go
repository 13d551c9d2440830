package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles, so running it on a
// completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task between pending and completed" }
func (c *DoneCmd) Usage() string     { return "lifeos done <n>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	task, err := taskRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}

	updated, err := svc.ToggleTask(ctx, task.ID)
	if err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "%s: %s\n", updated.Status, updated.Title)
	}
	return exitcode.Success
}
