package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rbright/soundpp/internal/hotkey"
)

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevGroup  key.Binding
	NextGroup  key.Binding
	Play       key.Binding
	Stop       key.Binding
	Mute       key.Binding
	Search     key.Binding
	Record     key.Binding
	ClearShort key.Binding
	Delete     key.Binding
	Sweep      key.Binding
	Open       key.Binding
	Share      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevGroup:  key.NewBinding(key.WithKeys("left", "shift+tab", "h"), key.WithHelp("←", "prev group")),
		NextGroup:  key.NewBinding(key.WithKeys("right", "tab", "l"), key.WithHelp("→", "next group")),
		Play:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Record:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record shortcut")),
		ClearShort: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear shortcut")),
		Delete:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Sweep:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "sweep")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open folder")),
		Share:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "share group")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Mute, k.Search, k.Record, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevGroup, k.NextGroup},
		{k.Play, k.Stop, k.Mute, k.Search},
		{k.Record, k.ClearShort, k.Delete, k.Sweep, k.Open, k.Share},
		{k.Help, k.Quit},
	}
}

var terminalKeys = map[string]string{
	"esc":       "Escape",
	"enter":     "Enter",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pgup":      "PageUp",
	"pgdown":    "PageDown",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"space":     " ",
	" ":         " ",
	"+":         "plus",
	"-":         "minus",
}

// keyEventFromMsg rebuilds a key event from a terminal key. Terminals
// deliver whole combinations, so modifiers arrive with their key.
func keyEventFromMsg(msg tea.KeyMsg) (hotkey.KeyEvent, bool) {
	s := msg.String()
	if s == "" {
		return hotkey.KeyEvent{}, false
	}
	parts := strings.Split(s, "+")
	name := parts[len(parts)-1]
	if name == "" && len(parts) > 1 {
		name = "+"
		parts = parts[:len(parts)-1]
	}

	var ev hotkey.KeyEvent
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl":
			ev.Ctrl = true
		case "alt":
			ev.Alt = true
		case "shift":
			ev.Shift = true
		}
	}

	if mapped, ok := terminalKeys[name]; ok {
		ev.Key = mapped
		return ev, true
	}
	runes := []rune(name)
	if len(runes) == 1 {
		r := runes[0]
		if unicode.IsUpper(r) {
			ev.Shift = true
		}
		ev.Key = string(unicode.ToLower(r))
		if unicode.IsDigit(r) {
			ev.Code = "Digit" + string(r)
		}
		return ev, true
	}
	if strings.HasPrefix(name, "f") && len(name) <= 3 {
		ev.Key = strings.ToUpper(name)
		return ev, true
	}
	return hotkey.KeyEvent{}, false
}
