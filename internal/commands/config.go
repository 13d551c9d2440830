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

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd prints the effective settings after file and environment
// overrides.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Print the effective configuration" }
func (c *ConfigCmd) Usage() string     { return "lifeos config" }
func (c *ConfigCmd) NeedsAuth() bool   { return false }

func (c *ConfigCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	b, err := cfg.YAML()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	out.Write(b)
	return exitcode.Success
}
