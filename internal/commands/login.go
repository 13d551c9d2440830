package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email         string
	passwordStdin bool

	// In supplies --password-stdin input. Defaults to os.Stdin.
	In io.Reader
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string {
	return "lifeos login [--email <email>] [--password-stdin]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from stdin")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	email := strings.TrimSpace(c.email)
	var password string
	switch {
	case c.passwordStdin:
		if email == "" {
			return userError(errOut, "--email is required with --password-stdin")
		}
		pw, err := newLineReader(c.In).Next()
		if err != nil {
			return userError(errOut, "failed to read password: %v", err)
		}
		password = pw
	case stdinIsTerminal():
		if err := ask(errOut, textInput("Email", &email), secretInput("Password", &password)); err != nil {
			return promptError(errOut, err)
		}
	default:
		return userError(errOut, "password required (use --password-stdin)")
	}

	if err := svc.Login(ctx, strings.TrimSpace(email), password); err != nil {
		return reportError(errOut, err)
	}
	return ok(out, cfg.Quiet)
}

// RegisterCmd implements the register command. A successful registration
// signs in straight away.
type RegisterCmd struct {
	name          string
	email         string
	passwordStdin bool

	// In supplies --password-stdin input. Defaults to os.Stdin.
	In io.Reader
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account" }
func (c *RegisterCmd) Usage() string {
	return "lifeos register [--name <name>] [--email <email>] [--password-stdin]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.name, "name", "n", "", "display name")
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "read the password from stdin")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	name, email := strings.TrimSpace(c.name), strings.TrimSpace(c.email)
	var password string
	switch {
	case c.passwordStdin:
		pw, err := newLineReader(c.In).Next()
		if err != nil {
			return userError(errOut, "failed to read password: %v", err)
		}
		password = pw
	case stdinIsTerminal():
		if err := ask(errOut,
			textInput("Name", &name),
			textInput("Email", &email),
			secretInput("Password", &password),
		); err != nil {
			return promptError(errOut, err)
		}
	default:
		return userError(errOut, "password required (use --password-stdin)")
	}

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := service.ValidateRegistration(name, email, password); err != nil {
		return reportError(errOut, err)
	}
	user, err := svc.Register(ctx, name, email, password)
	if err != nil {
		return reportError(errOut, err)
	}
	if err := svc.Login(ctx, email, password); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "welcome, %s\n", user.Name)
	}
	return exitcode.Success
}

func promptError(errOut io.Writer, err error) int {
	if errors.Is(err, errCancelled) {
		return userError(errOut, "%v", err)
	}
	return userError(errOut, "prompt failed: %v", err)
}
