package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"lifeos/internal/cli"
	"lifeos/internal/commands"
	"lifeos/internal/config"
	"lifeos/internal/exitcode"
	"lifeos/internal/service"
	"lifeos/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return svc, nil
	}
}

// run dispatches args against the default registry with an isolated
// config directory.
func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	args = append([]string{"--config", t.TempDir()}, args...)
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, stderr, code := run(t, dispatcher, "--quiet", "add", "Buy", "milk")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "" {
		t.Errorf("expected no stdout with --quiet, got %q", stdout)
	}
	if tasks := svc.Tasks(); len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestDispatcher_CommandFlags(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	_, stderr, code := run(t, dispatcher, "add", "-p", "high", "-d", "receipts in drawer", "--due", "2025-04-01", "File", "taxes")

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	task := svc.Tasks()[0]
	if task.Priority != service.PriorityHigh {
		t.Errorf("expected high priority, got %q", task.Priority)
	}
	if task.Description == nil || *task.Description != "receipts in drawer" {
		t.Errorf("expected description to be stored, got %v", task.Description)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2025-04-01" {
		t.Errorf("expected due date 2025-04-01, got %v", task.DueDate)
	}
}

func TestDispatcher_FlagsResetBetweenRuns(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	run(t, dispatcher, "add", "--priority", "low", "first")
	run(t, dispatcher, "add", "second")

	tasks := svc.Tasks()
	if tasks[0].Title != "second" || tasks[0].Priority != service.PriorityMedium {
		t.Errorf("expected default priority on second run, got %+v", tasks[0])
	}
}

func TestDispatcher_Alias(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("aliased", service.PriorityLow, service.StatusPending)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, _, code := run(t, dispatcher, "ls")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  [ ] aliased  low\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	for _, args := range [][]string{{"help"}, {"--help"}, {}} {
		stdout, stderr, code := run(t, dispatcher, args...)

		if code != exitcode.Success {
			t.Errorf("%v: expected exit code %d, got %d", args, exitcode.Success, code)
		}
		if stderr != "" {
			t.Errorf("%v: expected no stderr, got %q", args, stderr)
		}
		if !strings.Contains(stdout, "Usage:") {
			t.Errorf("%v: expected help output to contain 'Usage:'", args)
		}
	}
}

func TestDispatcher_CommandHelpFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, _, code := run(t, dispatcher, "checkin", "--help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "Usage:\n  lifeos checkin <n>\n") {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, stderr, code := run(t, dispatcher, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "lifeos 0.1.0\n" {
		t.Errorf("expected 'lifeos 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: --unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_BadFlagValue(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, dispatcher, "tasks", "--page", "two")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, `error: invalid argument "two" for "--page" flag`) {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_RequiresSession(t *testing.T) {
	svc := testutil.NewFakeService()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))
	dispatcher.HasSession = func(*config.Config) bool { return false }

	_, stderr, code := run(t, dispatcher, "tasks")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: lifeos login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	// Commands that do not need a session still run.
	if _, _, code := run(t, dispatcher, "version"); code != exitcode.Success {
		t.Errorf("version should not need a session, got %d", code)
	}
}

func TestDispatcher_DefaultCommand(t *testing.T) {
	reg := commands.NewRegistry()
	var launched bool
	if err := reg.Register(&commands.TuiCmd{Launch: func(ctx context.Context, cfg *config.Config) error {
		launched = cfg.Yes
		return nil
	}}); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(reg, nil)

	_, _, code := run(t, dispatcher, "--yes")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !launched {
		t.Error("expected the shell to launch with global flags applied")
	}
}
