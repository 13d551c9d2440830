// Package commands holds the one-shot CLI commands. Each registers itself
// with DefaultRegistry from an init function.
package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth reports whether the command requires a stored session.
	// The dispatcher fails with an auth error before Run when none exists.
	NeedsAuth() bool

	// RegisterFlags binds command flags. It runs once per dispatch, on a
	// fresh flag set, so implementations reset their fields here.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command with the positional args left after flag
	// parsing and returns the exit code. cfg carries the global flags.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}
