package play

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause    key.Binding
	Next         key.Binding
	Previous     key.Binding
	SeekForward  key.Binding
	SeekBackward key.Binding
	VolumeUp     key.Binding
	VolumeDown   key.Binding
	Mute         key.Binding
	Shuffle      key.Binding
	Repeat       key.Binding
	Crossfade    key.Binding
	FadeOut      key.Binding
	FadeIn       key.Binding
	SelectNumber key.Binding
	CycleEQ      key.Binding
	CopyPath     key.Binding

	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Select       key.Binding
	NextPlaylist key.Binding
	PrevPlaylist key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		Previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),
		SeekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "+10s"),
		),
		SeekBackward: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "-10s"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up", "+", "="),
			key.WithHelp("↑", "volume +5%"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("↓", "volume -5%"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Shuffle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "shuffle"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "repeat"),
		),
		Crossfade: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "crossfade"),
		),
		FadeOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "fade out"),
		),
		FadeIn: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "fade in"),
		),
		SelectNumber: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "play track"),
		),
		CycleEQ: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "next eq preset"),
		),
		CopyPath: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),

		Up: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "cursor down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play selected"),
		),
		NextPlaylist: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next playlist"),
		),
		PrevPlaylist: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous playlist"),
		),

		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Next, k.Previous, k.VolumeUp, k.VolumeDown, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Next, k.Previous, k.SeekForward, k.SeekBackward, k.SelectNumber},
		{k.VolumeUp, k.VolumeDown, k.Mute, k.FadeOut, k.FadeIn},
		{k.Shuffle, k.Repeat, k.Crossfade, k.CycleEQ, k.CopyPath},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Select},
		{k.NextPlaylist, k.PrevPlaylist, k.Help, k.Quit},
	}
}
