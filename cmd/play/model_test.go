package play

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestModel_TransportKeys(t *testing.T) {
	f := newFixture(t)
	m := newModel(f.player(PlayerOptions{Playlist: &f.a}), time.Second)

	m = press(t, m, runes("2"))
	if s := m.snap.Status; s.Index != 1 || !s.Playing {
		t.Fatalf("after 2: index %d playing %v", s.Index, s.Playing)
	}
	if m.list.Marked != 1 {
		t.Errorf("marked row = %d, want 1", m.list.Marked)
	}

	m = press(t, m, runes("n"))
	if got := m.snap.Status.Index; got != 2 {
		t.Errorf("after next: index %d, want 2", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.snap.Status.Playing {
		t.Error("space did not pause")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.snap.Status.Volume; got < 0.749 || got > 0.751 {
		t.Errorf("volume = %v, want 0.75", got)
	}

	m = press(t, m, runes("m"))
	if !m.snap.Status.Muted {
		t.Error("m did not mute")
	}
}

func TestModel_CursorSelect(t *testing.T) {
	f := newFixture(t)
	m := newModel(f.player(PlayerOptions{Playlist: &f.a}), time.Second)

	m = press(t, m, runes("j"), runes("j"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.snap.Status.Index; got != 2 {
		t.Errorf("index = %d, want 2", got)
	}
}

func TestModel_SafeModeShowsError(t *testing.T) {
	f := newFixture(t)
	f.app.Session.SetSafeMode(true)
	m := newModel(f.player(PlayerOptions{Playlist: &f.a}), time.Second)

	m = press(t, m, runes("s"))
	if !m.isError || !strings.Contains(m.message, "safe mode") {
		t.Errorf("message = %q (error %v)", m.message, m.isError)
	}
	if m.snap.Status.Shuffled {
		t.Error("shuffle changed in safe mode")
	}
}

func TestModel_CopyPath(t *testing.T) {
	orig := clipboardWriteAll
	t.Cleanup(func() { clipboardWriteAll = orig })
	var copied string
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}

	f := newFixture(t)
	m := newModel(f.player(PlayerOptions{Playlist: &f.a}), time.Second)
	m = press(t, m, runes("y"))
	if copied != "/music/alpha/1.mp3" {
		t.Errorf("copied %q", copied)
	}

	clipboardWriteAll = func(string) error { return errors.New("no clipboard") }
	m = press(t, m, runes("y"))
	if !m.isError {
		t.Error("clipboard failure not reported")
	}
}

func TestModel_QuitAndView(t *testing.T) {
	f := newFixture(t)
	m := newModel(f.player(PlayerOptions{Playlist: &f.b}), time.Second)
	m = press(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{"Beta (2 tracks)", "1", "Next:", "repeat all"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
