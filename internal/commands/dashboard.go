package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"lifeos/internal/apperrors"
	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/output"
	"lifeos/internal/service"
)

func init() {
	Register(&DashboardCmd{})
	Register(&ReportCmd{})
}

// DashboardCmd implements the dashboard command.
type DashboardCmd struct{}

func (c *DashboardCmd) Name() string      { return "dashboard" }
func (c *DashboardCmd) Aliases() []string { return []string{"stats"} }
func (c *DashboardCmd) Synopsis() string  { return "Show productivity metrics and streaks" }
func (c *DashboardCmd) Usage() string     { return "lifeos dashboard" }
func (c *DashboardCmd) NeedsAuth() bool   { return true }

func (c *DashboardCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DashboardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	d, err := svc.Dashboard(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatDashboard(out, d)
	return exitcode.Success
}

// ReportCmd implements the report command.
type ReportCmd struct {
	generate bool
	render   bool

	// Now is the clock for relative times. Defaults to time.Now.
	Now func() time.Time
}

// SetGenerate sets --generate (for testing).
func (c *ReportCmd) SetGenerate(generate bool) {
	c.generate = generate
}

func (c *ReportCmd) Name() string      { return "report" }
func (c *ReportCmd) Aliases() []string { return nil }
func (c *ReportCmd) Synopsis() string  { return "Show the latest weekly report" }
func (c *ReportCmd) Usage() string     { return "lifeos report [--generate] [--render]" }
func (c *ReportCmd) NeedsAuth() bool   { return true }

func (c *ReportCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.generate, "generate", "g", false, "build this week's report first")
	fs.BoolVar(&c.render, "render", false, "render the report as markdown")
}

func (c *ReportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.generate {
		gen, err := svc.GenerateReport(ctx)
		if err != nil {
			return reportError(errOut, err)
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "%s (score %d/100)\n", gen.Message, gen.Score)
		}
	}

	r, err := svc.LatestReport(ctx)
	if errors.Is(err, apperrors.ErrNoReport) {
		fmt.Fprintln(out, "no report yet (run: lifeos report --generate)")
		return exitcode.Success
	}
	if err != nil {
		return reportError(errOut, err)
	}

	if c.render {
		r.Report = output.RenderMarkdown(r.Report, terminalWidth())
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	output.FormatReport(out, r, now())
	return exitcode.Success
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
