package confirm

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"lifeos/internal/apperrors"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Ask(title, message, label string, dangerous bool) (bool, error)
}

// TermPrompter asks on the terminal with a huh confirm field.
type TermPrompter struct {
	In        *os.File
	Out       io.Writer
	AssumeYes bool
}

// Ask implements Prompter. Without a terminal and without AssumeYes it
// refuses rather than guessing.
func (p TermPrompter) Ask(title, message, label string, dangerous bool) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	if !term.IsTerminal(int(in.Fd())) {
		return false, apperrors.Invalid("", "confirmation required (use --yes)")
	}

	ok := false
	field := huh.NewConfirm().
		Title(title).
		Description(message).
		Affirmative(label).
		Negative("Cancel").
		Value(&ok)
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(promptTheme(dangerous)).
		WithInput(in)
	if p.Out != nil {
		form = form.WithOutput(p.Out)
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

var dangerColor = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}

// promptTheme returns the confirm field theme. Dangerous prompts get a red
// title, border and affirmative button.
func promptTheme(dangerous bool) *huh.Theme {
	t := huh.ThemeDracula()
	if !dangerous {
		return t
	}
	t.Focused.Base = t.Focused.Base.BorderForeground(dangerColor)
	t.Focused.Title = t.Focused.Title.Foreground(dangerColor)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(dangerColor)
	return t
}

// Ask opens req on g, asks p, and resolves the gate with the answer.
// confirmed is false when the user declined.
func Ask[R any](g *Gate[R], p Prompter, req Request[R]) (result R, confirmed bool, err error) {
	g.Request(req)
	yes, err := p.Ask(req.Title, req.Message, req.Label(), req.Dangerous)
	if err != nil || !yes {
		g.Dismiss()
		return result, false, err
	}
	result, confirmed = g.Confirm()
	return result, confirmed, nil
}
