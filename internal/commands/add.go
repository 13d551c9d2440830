package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"lifeos/internal/apperrors"
	"lifeos/internal/config"
	"lifeos/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	priority    string
	description string
	due         string
}

// SetPriority sets the priority (for testing).
func (c *AddCmd) SetPriority(priority string) {
	c.priority = priority
}

// SetDue sets the due date (for testing).
func (c *AddCmd) SetDue(due string) {
	c.due = due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "lifeos add [--priority low|medium|high] [--description <text>] [--due YYYY-MM-DD] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.priority, "priority", "p", service.PriorityMedium, "low, medium or high")
	fs.StringVarP(&c.description, "description", "d", "", "notes")
	fs.StringVar(&c.due, "due", "", "due date (YYYY-MM-DD)")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return userError(errOut, "title required")
	}

	in := service.TaskInput{
		Title:    title,
		Priority: service.NormalizePriority(c.priority),
	}
	if d := strings.TrimSpace(c.description); d != "" {
		in.Description = &d
	}
	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			return reportError(errOut, err)
		}
		in.DueDate = due
	}
	if err := in.Validate(); err != nil {
		return reportError(errOut, err)
	}

	if _, err := svc.CreateTask(ctx, in); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

func parseDue(s string) (*service.Timestamp, error) {
	d, err := service.ParseDate(s)
	if err != nil {
		return nil, apperrors.Invalid("due", "due date must be YYYY-MM-DD")
	}
	return &service.Timestamp{Time: d.Time}, nil
}
