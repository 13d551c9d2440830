package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/confirm"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
	"lifeos/internal/session"
	"lifeos/internal/tokenstore"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct {
	// Prompter asks for confirmation. Defaults to the terminal.
	Prompter confirm.Prompter
}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Revoke and remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "lifeos logout [--yes]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	store, err := tokenstore.Open(cfg.StatePath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	ctrl := session.New(svc, store, nil, nil)
	if ctrl.Boot().Status != session.LoggedIn {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	req := session.LogoutRequest(ctx, ctrl, func(logout func() error) error { return logout() })
	done, err := gated(cfg, c.Prompter, errOut, req)
	if err != nil {
		return reportError(errOut, err)
	}
	if !done {
		return cancelled(out, cfg.Quiet)
	}
	return ok(out, cfg.Quiet)
}

// cancelled reports a declined confirmation. Declining is not an error.
func cancelled(out io.Writer, quiet bool) int {
	if !quiet {
		fmt.Fprintln(out, "cancelled")
	}
	return exitcode.Success
}
