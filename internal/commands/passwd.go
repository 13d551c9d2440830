package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/confirm"
	"lifeos/internal/service"
)

func init() {
	Register(&PasswdCmd{})
}

// PasswdCmd implements the passwd command.
type PasswdCmd struct {
	passwordStdin bool

	// In supplies --password-stdin input: the current password, then the
	// new one, one per line. Defaults to os.Stdin.
	In io.Reader

	// Prompter asks for confirmation. Defaults to the terminal.
	Prompter confirm.Prompter
}

func (c *PasswdCmd) Name() string      { return "passwd" }
func (c *PasswdCmd) Aliases() []string { return []string{"change-password"} }
func (c *PasswdCmd) Synopsis() string  { return "Change the account password" }
func (c *PasswdCmd) Usage() string     { return "lifeos passwd [--password-stdin] [--yes]" }
func (c *PasswdCmd) NeedsAuth() bool   { return true }

func (c *PasswdCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "read current and new password from stdin")
}

func (c *PasswdCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	var current, next string
	switch {
	case c.passwordStdin:
		lines := newLineReader(c.In)
		var err error
		if current, err = lines.Next(); err == nil {
			next, err = lines.Next()
		}
		if err != nil {
			return userError(errOut, "failed to read passwords: %v", err)
		}
	case stdinIsTerminal():
		if err := ask(errOut, secretInput("Current password", &current), secretInput("New password", &next)); err != nil {
			return promptError(errOut, err)
		}
	default:
		return userError(errOut, "passwords required (use --password-stdin)")
	}

	if err := service.ValidatePasswordChange(current, next); err != nil {
		return reportError(errOut, err)
	}

	done, err := gated(cfg, c.Prompter, errOut, confirm.Request[error]{
		Title:        "Change password",
		Message:      "Your new password takes effect immediately.",
		ConfirmLabel: "Change",
		OnConfirm: func() error {
			return svc.ChangePassword(ctx, current, next)
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
