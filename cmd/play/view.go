package play

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/crossfade"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/transport"
	"github.com/gigurra/crossfader/cmd/engine/units"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	trackStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	safeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// chromeHeight is the number of lines drawn around the track list.
func (m model) chromeHeight() int {
	// header, title, artist, progress, next, status, blank, list header,
	// blank, message, help
	lines := 11
	if m.help.ShowAll {
		lines += 5
	}
	return lines
}

func (m model) View() string {
	s := m.snap.Status
	var b strings.Builder

	b.WriteString(m.headerLine(s))
	b.WriteString("\n")
	b.WriteString(m.nowPlaying(s))
	b.WriteString("\n")
	b.WriteString(m.statusLine(s))
	b.WriteString("\n\n")

	if len(m.tracks) == 0 {
		b.WriteString(dimStyle.Render(emptyHint(s)))
		b.WriteString("\n")
	} else {
		b.WriteString(m.list.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.message == "":
	case m.isError:
		b.WriteString(errorStyle.Render(m.message))
	default:
		b.WriteString(activeStyle.Render(m.message))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) headerLine(s transport.Status) string {
	name := "No playlist"
	if s.PlaylistName != "" {
		name = fmt.Sprintf("%s (%d tracks)", s.PlaylistName, s.TrackCount)
	}
	line := titleStyle.Render("crossfader") + dimStyle.Render(" · ") + headerStyle.Render(name)
	if s.SafeMode {
		line += "  " + safeStyle.Render(" SAFE MODE ")
	}
	return line
}

func (m model) nowPlaying(s transport.Status) string {
	if !s.HasTrack {
		return dimStyle.Render("Nothing loaded") + "\n\n\n"
	}
	icon := "⏸"
	if s.Playing {
		icon = "▶"
	}
	if s.Loading {
		icon = "…"
	}
	width := max(10, m.width-4)
	title := trackStyle.Render(table.Truncate(s.Track.DisplayTitle(), width))
	artist := s.Track.Artist
	if artist == "" {
		artist = library.UnknownArtist
	}
	if s.Track.Album != "" {
		artist += " · " + s.Track.Album
	}

	pct := 0.0
	if s.Duration > 0 {
		pct = min(1, float64(s.Position)/float64(s.Duration))
	}
	bar := fmt.Sprintf("%6s %s %-6s",
		units.FormatDuration(s.Position),
		m.progress.ViewAs(pct),
		units.FormatDuration(s.Duration))

	next := dimStyle.Render("Next: " + table.Truncate(s.NextTitle, width-6))
	return icon + " " + title + "\n  " + dimStyle.Render(table.Truncate(artist, width)) + "\n" + bar + "\n" + next
}

func (m model) statusLine(s transport.Status) string {
	vol := fmt.Sprintf("vol %d%%", units.GainToPercent(s.Volume))
	if s.Muted {
		vol = warnStyle.Render("muted")
	}
	parts := []string{
		vol,
		toggle("shuffle", s.Shuffled),
		"repeat " + s.Repeat.String(),
		toggle(fmt.Sprintf("crossfade %gs", s.Settings.CrossfadeDuration.Seconds()), s.Settings.CrossfadeEnabled),
		"eq " + m.snap.EQ,
	}
	switch s.Crossfade {
	case crossfade.Priming:
		parts = append(parts, activeStyle.Render("preparing crossfade"))
	case crossfade.Fading:
		parts = append(parts, activeStyle.Render(fmt.Sprintf("crossfading %d/%d", s.CrossfadeStep, s.CrossfadeSteps)))
	}
	if s.Fade != transport.FadeNone {
		parts = append(parts, activeStyle.Render(s.Fade.String()))
	}
	return strings.Join(parts, dimStyle.Render(" │ "))
}

func toggle(label string, on bool) string {
	if on {
		return label
	}
	return dimStyle.Render(label + " off")
}

func emptyHint(s transport.Status) string {
	if s.PlaylistName == "" {
		return "No playlist loaded. Press tab to load one, or create one with: crossfader playlist new <name>"
	}
	return "This playlist is empty. Add music with: crossfader playlist add \"" + s.PlaylistName + "\" <path>"
}
