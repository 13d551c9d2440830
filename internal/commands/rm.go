package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/confirm"
	"lifeos/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	// Prompter asks for confirmation. Defaults to the terminal.
	Prompter confirm.Prompter
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "lifeos rm [--yes] <n>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	task, err := taskRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}

	done, err := gated(cfg, c.Prompter, errOut, confirm.Request[error]{
		Title:        "Delete task",
		Message:      fmt.Sprintf("Delete %q? This cannot be undone.", task.Title),
		ConfirmLabel: "Delete",
		Dangerous:    true,
		OnConfirm: func() error {
			return svc.DeleteTask(ctx, task.ID)
		},
	})
	if err != nil {
		return reportError(errOut, err)
	}
	if !done {
		return cancelled(out, cfg.Quiet)
	}
	return ok(out, cfg.Quiet)
}
