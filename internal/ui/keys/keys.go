package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every board binding
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Quit      key.Binding
	Tab       key.Binding
	ShiftTab  key.Binding
	New       key.Binding
	Delete    key.Binding
	Mark      key.Binding
	Edit      key.Binding
	Revert    key.Binding
	Save      key.Binding
	Search    key.Binding
	Status    key.Binding
	Group     key.Binding
	Sort      key.Binding
	Reverse   key.Binding
	Dashboard key.Binding
	Help      key.Binding
}

// DefaultKeyMap returns the stock bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "select")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		ShiftTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Mark:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Revert:    key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "revert")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Status:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		Group:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "group filter")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reverse:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse")),
		Dashboard: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "dashboard")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}
