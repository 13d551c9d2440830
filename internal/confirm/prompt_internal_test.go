package confirm

import (
	"testing"

	"github.com/charmbracelet/huh"
)

func TestPromptTheme(t *testing.T) {
	plain := promptTheme(false)
	if plain.Focused.FocusedButton.GetBackground() != huh.ThemeDracula().Focused.FocusedButton.GetBackground() {
		t.Error("expected the stock theme for a plain prompt")
	}

	danger := promptTheme(true)
	if danger.Focused.FocusedButton.GetBackground() != dangerColor {
		t.Errorf("expected danger button background, got %v", danger.Focused.FocusedButton.GetBackground())
	}
	if danger.Focused.Title.GetForeground() != dangerColor {
		t.Errorf("expected danger title color, got %v", danger.Focused.Title.GetForeground())
	}
	if danger.Focused.Base.GetBorderLeftForeground() != dangerColor {
		t.Errorf("expected danger border, got %v", danger.Focused.Base.GetBorderLeftForeground())
	}
}
