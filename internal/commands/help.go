package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/pflag"

	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry is listed. Defaults to DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "lifeos help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, ok := reg.Find(args[0])
		if !ok {
			return userError(errOut, "unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "Usage:\n  %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
		return exitcode.Success
	}

	fmt.Fprintln(out, "Usage:")
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, cmd := range reg.All() {
		tbl.AddRow("  "+cmd.Usage(), cmd.Synopsis())
	}
	fmt.Fprintln(out, tbl)
	fmt.Fprint(out, commonFlags)
	return exitcode.Success
}

const commonFlags = `
Rows are numbered as the tasks and habits listings print them.

Common flags:
  --config <dir>   Override config directory
  --quiet, -q      Suppress informational output
  --debug          Print debug logs to stderr
  --yes, -y        Answer yes to confirmations
`
