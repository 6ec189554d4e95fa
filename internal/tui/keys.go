package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	selectPanel key.Binding
	nextPanel   key.Binding
	prevPanel   key.Binding
	run         key.Binding
	input       key.Binding
	autonomous  key.Binding
	stop        key.Binding
	copy        key.Binding
	help        key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		selectPanel: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-6", "select panel"),
		),
		nextPanel: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next panel"),
		),
		prevPanel: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "prev panel"),
		),
		run: key.NewBinding(
			key.WithKeys("enter", "r"),
			key.WithHelp("enter", "run"),
		),
		input: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "run with input"),
		),
		autonomous: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle autonomous"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy output"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.selectPanel, k.run, k.autonomous, k.stop, k.copy, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.selectPanel, k.nextPanel, k.prevPanel},
		{k.run, k.input, k.autonomous, k.stop},
		{k.copy, k.help, k.quit},
	}
}
