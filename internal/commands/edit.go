package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the title changes; the other
// fields are sent back as they are.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"rename"} }
func (c *EditCmd) Synopsis() string  { return "Retitle a task" }
func (c *EditCmd) Usage() string     { return "lifeos edit <n> <title...>" }
func (c *EditCmd) NeedsAuth() bool   { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		return userError(errOut, "title required")
	}

	task, err := taskRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}

	in := service.TaskInput{
		Title:       title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
	}
	if _, err := svc.UpdateTask(ctx, task.ID, in); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}
