package play

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/transport"
)

const (
	seekStep   = 10 * time.Second
	volumeStep = 5
	// messageTTL is how long a status message stays on screen.
	messageTTL = 4 * time.Second
)

var clipboardWriteAll = clipboard.WriteAll

type tickMsg time.Time

type model struct {
	player   *Player
	interval time.Duration
	keys     keyMap
	help     help.Model
	progress progress.Model
	list     *table.List

	snap    Snapshot
	rev     int
	tracks  []library.Track
	message string
	isError bool
	shownAt time.Time
	// noticeAt identifies the last engine notice already shown.
	noticeAt time.Time

	width  int
	height int
}

func newModel(p *Player, interval time.Duration) model {
	list := table.NewList(
		table.Column{Header: "#", Width: 4, Align: table.AlignRight},
		table.Column{Header: "Title", Weight: 3, MinWidth: 10},
		table.Column{Header: "Artist", Weight: 2, MinWidth: 8},
		table.Column{Header: "Time", Width: 7, Align: table.AlignRight},
	)
	list.HeaderStyle = headerStyle
	list.CursorStyle = cursorStyle
	list.MarkedStyle = playingStyle

	m := model{
		player:   p,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		list:     list,
		rev:      -1,
		width:    table.DefaultTerminalWidth,
		height:   24,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh pulls a snapshot and rebuilds the track rows when the playlist changed.
func (m *model) refresh() {
	m.snap = m.player.Snapshot(m.rev)
	if m.snap.Rev != m.rev {
		m.rev = m.snap.Rev
		m.tracks = m.snap.Tracks
		rows := make([][]string, len(m.tracks))
		for i, t := range m.tracks {
			rows[i] = []string{fmt.Sprint(i + 1), t.DisplayTitle(), t.Artist, t.Duration}
		}
		m.list.SetRows(rows)
	}
	if m.snap.Status.HasTrack {
		m.list.Marked = m.snap.Status.Index
	} else {
		m.list.Marked = -1
	}
	if n := m.snap.Notice; !n.At.IsZero() && !n.At.Equal(m.noticeAt) {
		m.noticeAt = n.At
		m.show(n.Text, n.Level == transport.NoticeError)
	}
}

func (m *model) show(msg string, isError bool) {
	m.message = msg
	m.isError = isError
	m.shownAt = time.Now()
}

func (m *model) report(err error) {
	if err != nil {
		m.show(errs.Message(err), true)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, msg.Width-16)
		m.list.Width = msg.Width
		m.list.Height = max(1, msg.Height-m.chromeHeight())
		m.list.EnsureVisible()
		return m, nil

	case tickMsg:
		m.refresh()
		if m.message != "" && time.Since(m.shownAt) > messageTTL {
			m.message = ""
		}
		return m, tickCmd(m.interval)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) {
	act := func(fn func(c *transport.Controller) error) {
		m.report(m.player.Act(fn))
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.PlayPause):
		act(func(c *transport.Controller) error { c.TogglePlayPause(); return nil })
	case key.Matches(msg, k.Next):
		act(func(c *transport.Controller) error { c.PlayNext(); return nil })
	case key.Matches(msg, k.Previous):
		act(func(c *transport.Controller) error { c.PlayPrevious(); return nil })
	case key.Matches(msg, k.SeekForward):
		act(func(c *transport.Controller) error { c.SeekRelative(seekStep); return nil })
	case key.Matches(msg, k.SeekBackward):
		act(func(c *transport.Controller) error { c.SeekRelative(-seekStep); return nil })
	case key.Matches(msg, k.VolumeUp):
		act(func(c *transport.Controller) error { c.ChangeVolume(volumeStep); return nil })
	case key.Matches(msg, k.VolumeDown):
		act(func(c *transport.Controller) error { c.ChangeVolume(-volumeStep); return nil })
	case key.Matches(msg, k.Mute):
		act(func(c *transport.Controller) error { c.ToggleMute(); return nil })
	case key.Matches(msg, k.Shuffle):
		act((*transport.Controller).ToggleShuffle)
	case key.Matches(msg, k.Repeat):
		act((*transport.Controller).CycleRepeat)
	case key.Matches(msg, k.Crossfade):
		act((*transport.Controller).ToggleCrossfade)
	case key.Matches(msg, k.FadeOut):
		act(func(c *transport.Controller) error { c.FadeOut(); return nil })
	case key.Matches(msg, k.FadeIn):
		act(func(c *transport.Controller) error { c.FadeIn(); return nil })
	case key.Matches(msg, k.SelectNumber):
		index := int(msg.String()[0] - '1')
		act(func(c *transport.Controller) error { return c.SelectTrack(index) })
	case key.Matches(msg, k.CycleEQ):
		name, err := m.player.CycleEQ()
		if err != nil {
			m.report(err)
		} else {
			m.show("Equalizer: "+name, false)
		}
	case key.Matches(msg, k.CopyPath):
		m.copyPath()

	case key.Matches(msg, k.Up):
		m.list.Move(-1)
	case key.Matches(msg, k.Down):
		m.list.Move(1)
	case key.Matches(msg, k.PageUp):
		m.list.Move(-max(1, m.list.Height-1))
	case key.Matches(msg, k.PageDown):
		m.list.Move(max(1, m.list.Height-1))
	case key.Matches(msg, k.Select):
		if index := m.list.Cursor; index >= 0 {
			act(func(c *transport.Controller) error { return c.SelectTrack(index) })
		}
	case key.Matches(msg, k.NextPlaylist), key.Matches(msg, k.PrevPlaylist):
		delta := 1
		if key.Matches(msg, k.PrevPlaylist) {
			delta = -1
		}
		name, err := m.player.SwitchPlaylist(delta)
		if err != nil {
			m.report(err)
		} else {
			m.show("Playlist: "+name, false)
		}

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.list.Height = max(1, m.height-m.chromeHeight())
		m.list.EnsureVisible()
	}
}

func (m *model) copyPath() {
	s := m.snap.Status
	if !s.HasTrack {
		return
	}
	if err := clipboardWriteAll(s.Track.Path); err != nil {
		m.show("Could not copy to clipboard: "+err.Error(), true)
		return
	}
	m.show("Copied "+s.Track.Path, false)
}
