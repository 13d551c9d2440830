package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the shell's bindings. It implements help.KeyMap.
type keyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	Dashboard key.Binding
	Tasks     key.Binding
	Habits    key.Binding
	Profile   key.Binding
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Edit      key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	More      key.Binding
	Reload    key.Binding
	Generate  key.Binding
	Password  key.Binding
	Logout    key.Binding
	Help      key.Binding
	Quit      key.Binding

	Confirm key.Binding
	Dismiss key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		NextTab:   key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		Dashboard: key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "jump to tab")),
		Tasks:     key.NewBinding(key.WithKeys("2")),
		Habits:    key.NewBinding(key.WithKeys("3")),
		Profile:   key.NewBinding(key.WithKeys("4")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle / check in")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		More:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Generate:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate report")),
		Password:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "change password")),
		Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Confirm: key.NewBinding(key.WithKeys("enter", "y"), key.WithHelp("enter", "confirm")),
		Dismiss: key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Add, k.Toggle, k.Delete, k.Reload, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Dashboard, k.Up, k.Down},
		{k.Add, k.Edit, k.Toggle, k.Delete, k.More},
		{k.Reload, k.Generate, k.Password, k.Logout, k.Help, k.Quit},
	}
}
