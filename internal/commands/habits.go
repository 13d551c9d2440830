package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/confirm"
	"lifeos/internal/exitcode"
	"lifeos/internal/output"
	"lifeos/internal/service"
)

func init() {
	Register(&HabitsCmd{})
	Register(&HabitAddCmd{})
	Register(&HabitEditCmd{})
	Register(&HabitRmCmd{})
	Register(&CheckinCmd{})
	Register(&HabitShowCmd{})
}

// HabitsCmd implements the habits command.
type HabitsCmd struct {
	page int
}

func (c *HabitsCmd) Name() string      { return "habits" }
func (c *HabitsCmd) Aliases() []string { return nil }
func (c *HabitsCmd) Synopsis() string  { return "List habits with their streaks" }
func (c *HabitsCmd) Usage() string     { return "lifeos habits [--page <n>]" }
func (c *HabitsCmd) NeedsAuth() bool   { return true }

func (c *HabitsCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.page, "page", 1, "page number")
}

// SetPage sets the page (for testing).
func (c *HabitsCmd) SetPage(page int) {
	c.page = page
}

func (c *HabitsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}
	return listPage(ctx, c.page, habitList(svc), "habits", output.FormatHabitLine, out, errOut)
}

// HabitAddCmd implements the habit-add command.
type HabitAddCmd struct{}

func (c *HabitAddCmd) Name() string      { return "habit-add" }
func (c *HabitAddCmd) Aliases() []string { return nil }
func (c *HabitAddCmd) Synopsis() string  { return "Start tracking a daily habit" }
func (c *HabitAddCmd) Usage() string     { return "lifeos habit-add <name...>" }
func (c *HabitAddCmd) NeedsAuth() bool   { return true }

func (c *HabitAddCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HabitAddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return userError(errOut, "name required")
	}
	if _, err := svc.CreateHabit(ctx, service.HabitInput{Name: name, TargetType: service.DefaultTargetType}); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

// HabitEditCmd implements the habit-edit command.
type HabitEditCmd struct{}

func (c *HabitEditCmd) Name() string      { return "habit-edit" }
func (c *HabitEditCmd) Aliases() []string { return []string{"habit-rename"} }
func (c *HabitEditCmd) Synopsis() string  { return "Rename a habit" }
func (c *HabitEditCmd) Usage() string     { return "lifeos habit-edit <n> <name...>" }
func (c *HabitEditCmd) NeedsAuth() bool   { return true }

func (c *HabitEditCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HabitEditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	name := strings.TrimSpace(strings.Join(args[1:], " "))
	if name == "" {
		return userError(errOut, "name required")
	}

	habit, err := habitRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}
	in := service.HabitInput{Name: name, TargetType: habit.TargetType}
	if _, err := svc.UpdateHabit(ctx, habit.ID, in); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

// HabitRmCmd implements the habit-rm command.
type HabitRmCmd struct {
	// Prompter asks for confirmation. Defaults to the terminal.
	Prompter confirm.Prompter
}

func (c *HabitRmCmd) Name() string      { return "habit-rm" }
func (c *HabitRmCmd) Aliases() []string { return nil }
func (c *HabitRmCmd) Synopsis() string  { return "Delete a habit and its history" }
func (c *HabitRmCmd) Usage() string     { return "lifeos habit-rm [--yes] <n>" }
func (c *HabitRmCmd) NeedsAuth() bool   { return true }

func (c *HabitRmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HabitRmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	habit, err := habitRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}

	done, err := gated(cfg, c.Prompter, errOut, confirm.Request[error]{
		Title:        "Delete habit",
		Message:      fmt.Sprintf("Delete %q and its check-ins? This cannot be undone.", habit.Name),
		ConfirmLabel: "Delete",
		Dangerous:    true,
		OnConfirm: func() error {
			return svc.DeleteHabit(ctx, habit.ID)
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

// CheckinCmd implements the checkin command. Checking in a habit already
// logged today clears today's check-in.
type CheckinCmd struct{}

func (c *CheckinCmd) Name() string      { return "checkin" }
func (c *CheckinCmd) Aliases() []string { return []string{"log"} }
func (c *CheckinCmd) Synopsis() string  { return "Toggle today's check-in for a habit" }
func (c *CheckinCmd) Usage() string     { return "lifeos checkin <n>" }
func (c *CheckinCmd) NeedsAuth() bool   { return true }

func (c *CheckinCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *CheckinCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	habit, err := habitRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}

	completed := !habit.IsLoggedToday
	if _, err := svc.LogHabit(ctx, habit.ID, service.Today(), completed); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		if completed {
			fmt.Fprintf(out, "checked in: %s\n", habit.Name)
		} else {
			fmt.Fprintf(out, "unchecked: %s\n", habit.Name)
		}
	}
	return exitcode.Success
}

// HabitShowCmd implements the habit-show command.
type HabitShowCmd struct{}

func (c *HabitShowCmd) Name() string      { return "habit-show" }
func (c *HabitShowCmd) Aliases() []string { return nil }
func (c *HabitShowCmd) Synopsis() string  { return "Show a habit's streak and today's check-in" }
func (c *HabitShowCmd) Usage() string     { return "lifeos habit-show <n>" }
func (c *HabitShowCmd) NeedsAuth() bool   { return true }

func (c *HabitShowCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HabitShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	num, err := ParseRow(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	habit, err := habitRow(ctx, svc, num)
	if err != nil {
		return lookupError(errOut, err)
	}
	output.FormatHabit(out, habit)
	return exitcode.Success
}
