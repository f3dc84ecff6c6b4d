package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding
	External key.Binding
	Copy     key.Binding
	Today    key.Binding
	Picker   key.Binding
	Settings key.Binding
	Quit     key.Binding

	Save       key.Binding
	PickerOver key.Binding
	Close      key.Binding
	YearPrev   key.Binding
	YearNext   key.Binding
	Confirm    key.Binding
	Toggle     key.Binding
	Reindex    key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓", "down")),
	Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←", "left")),
	Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→", "right")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("PgUp", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("PgDn", "page down")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open")),
	External: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "editor")),
	Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
	Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	Picker:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to")),
	Settings: key.NewBinding(key.WithKeys("s", "?"), key.WithHelp("s", "settings")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("Ctrl+S", "save")),
	PickerOver: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("Ctrl+G", "go to")),
	Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "close")),
	YearPrev:   key.NewBinding(key.WithKeys("[", "<", "pgup"), key.WithHelp("[", "prev year")),
	YearNext:   key.NewBinding(key.WithKeys("]", ">", "pgdown"), key.WithHelp("]", "next year")),
	Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "confirm")),
	Toggle:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("Space", "toggle")),
	Reindex:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rebuild index")),
}

// hints renders a status bar hint list from bindings.
func hints(bs ...key.Binding) string {
	var out string
	for _, b := range bs {
		h := b.Help()
		out += "  [" + h.Key + "] " + h.Desc
	}
	return out
}
