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

// TuiCmd starts the interactive shell. It is registered by main, which
// owns the wiring the shell needs.
type TuiCmd struct {
	Launch func(ctx context.Context, cfg *config.Config) error
}

func (c *TuiCmd) Name() string      { return "tui" }
func (c *TuiCmd) Aliases() []string { return []string{"ui"} }
func (c *TuiCmd) Synopsis() string  { return "Open the interactive shell (default)" }
func (c *TuiCmd) Usage() string     { return "lifeos [tui]" }
func (c *TuiCmd) NeedsAuth() bool   { return false }

func (c *TuiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *TuiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.Launch == nil {
		fmt.Fprintln(errOut, "error: interactive shell not available")
		return exitcode.UserError
	}
	if err := c.Launch(ctx, cfg); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
