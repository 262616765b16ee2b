package state

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Pause   key.Binding
	Toggle  key.Binding
	Reset   key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "left"), key.WithHelp("tab", "לשונית הבאה")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "right"), key.WithHelp("shift+tab", "לשונית קודמת")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "רענון")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "השהה/המשך")),
		Toggle:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "רענון אוטומטי")),
		Reset:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "איפוס כשלונות")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "יציאה")),
	}
}

func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.Pause, k.Toggle, k.Reset, k.Quit}
}
