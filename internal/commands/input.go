package commands

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"lifeos/internal/config"
	"lifeos/internal/confirm"
)

// errCancelled is returned when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

// stdinIsTerminal reports whether interactive prompts can be shown.
// Replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runForm runs an interactive form on the terminal. Replaced in tests.
var runForm = func(form *huh.Form, errOut io.Writer) error {
	return form.WithTheme(huh.ThemeDracula()).WithOutput(errOut).Run()
}

// lineReader reads newline-terminated secrets from a non-interactive input.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(in io.Reader) *lineReader {
	if in == nil {
		in = os.Stdin
	}
	return &lineReader{r: bufio.NewReader(in)}
}

// Next returns the next line without its terminator. The last line may
// lack one.
func (l *lineReader) Next() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ask fills the given fields interactively.
func ask(errOut io.Writer, fields ...huh.Field) error {
	err := runForm(huh.NewForm(huh.NewGroup(fields...)), errOut)
	if errors.Is(err, huh.ErrUserAborted) {
		return errCancelled
	}
	return err
}

func secretInput(title string, value *string) *huh.Input {
	return huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(value)
}

func textInput(title string, value *string) *huh.Input {
	return huh.NewInput().Title(title).Value(value)
}

// prompterFor returns p, or the terminal prompter when p is nil. --yes
// always wins.
func prompterFor(p confirm.Prompter, cfg *config.Config, errOut io.Writer) confirm.Prompter {
	if cfg.Yes || p == nil {
		return confirm.TermPrompter{Out: errOut, AssumeYes: cfg.Yes}
	}
	return p
}

// gated runs req.OnConfirm once the user agrees. done is false when the
// user declined.
func gated(cfg *config.Config, p confirm.Prompter, errOut io.Writer, req confirm.Request[error]) (done bool, err error) {
	var gate confirm.Gate[error]
	result, confirmed, err := confirm.Ask(&gate, prompterFor(p, cfg, errOut), req)
	if err != nil {
		return false, err
	}
	if !confirmed {
		return false, nil
	}
	return true, result
}
