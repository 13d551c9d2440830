// Package cli maps command-line arguments onto registered commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lifeos/internal/commands"
	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "tui"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory

	// HasSession reports whether a session is stored. Commands that need
	// auth fail early without one. Nil skips the check.
	HasSession func(cfg *config.Config) bool
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// globals are the flags every command accepts.
type globals struct {
	configDir string
	quiet     bool
	debug     bool
	yes       bool
}

// errUnknownCommand carries the offending name.
type errUnknownCommand struct{ name string }

func (e errUnknownCommand) Error() string { return "unknown command: " + e.name }

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	code := exitcode.Success
	root := d.root(&code, out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		var unknown errUnknownCommand
		if errors.As(err, &unknown) {
			fmt.Fprintf(errOut, "error: %s\n", unknown)
			return exitcode.UserError
		}
		// Everything else cobra reports is a flag or argument problem.
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

// root builds the cobra tree for one invocation. Command flags are bound
// fresh each time so defaults never leak between runs.
func (d *Dispatcher) root(code *int, out, errOut io.Writer) *cobra.Command {
	var g globals

	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "Tasks, habits and weekly reports",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errUnknownCommand{name: args[0]}
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error {
			name := DefaultCommand
			if _, ok := d.registry.Find(name); !ok {
				name = "help"
			}
			cmd, ok := d.registry.Find(name)
			if !ok {
				return errUnknownCommand{name: name}
			}
			*code = d.dispatch(c.Context(), cmd, g, nil, out, errOut)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "config", "", "override config directory")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVar(&g.debug, "debug", false, "print debug logs to stderr")
	pf.BoolVarP(&g.yes, "yes", "y", false, "answer yes to confirmations")

	for _, cmd := range d.registry.All() {
		sub := &cobra.Command{
			Use:                   cmd.Name(),
			Aliases:               cmd.Aliases(),
			Short:                 cmd.Synopsis(),
			DisableFlagsInUseLine: true,
			Args:                  cobra.ArbitraryArgs,
			RunE: func(c *cobra.Command, args []string) error {
				*code = d.dispatch(c.Context(), cmd, g, args, out, errOut)
				return nil
			},
		}
		cmd.RegisterFlags(sub.Flags())
		root.AddCommand(sub)
		if cmd.Name() == "help" {
			root.SetHelpCommand(sub)
		}
	}

	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if cmd, ok := d.registry.Find(c.Name()); ok && c != root {
			fmt.Fprintf(out, "Usage:\n  %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
			return
		}
		if help, ok := d.registry.Find("help"); ok {
			*code = d.dispatch(c.Context(), help, g, nil, out, errOut)
		}
	})
	return root
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd commands.Command, g globals, args []string, out, errOut io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(g.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = g.quiet
	cfg.Yes = g.yes
	if g.debug {
		cfg.Debug = true
	}

	if cmd.NeedsAuth() && d.HasSession != nil && !d.HasSession(cfg) {
		fmt.Fprintln(errOut, "error: not logged in (run: lifeos login)")
		return exitcode.AuthError
	}

	var svc service.Service
	if d.factory != nil {
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	return cmd.Run(ctx, cfg, svc, args, out, errOut)
}
