package play

import (
	"errors"
	"testing"

	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common/config"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/loop/looptest"
	"github.com/gigurra/crossfader/cmd/engine/media/mediatest"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/session"
	"github.com/gigurra/crossfader/cmd/engine/transport"
	"github.com/spf13/afero"
)

// syncRunner runs work on the test goroutine, then drains what it posted.
type syncRunner struct {
	sched *looptest.Scheduler
}

func (r syncRunner) Do(fn func()) {
	fn()
	r.sched.Flush()
}

const storePath = "/data/store.json"

type fixture struct {
	fs      afero.Fs
	app     *app.App
	sched   *looptest.Scheduler
	backend *mediatest.Backend
	a, b    library.Playlist
}

func openApp(t *testing.T, fs afero.Fs) *app.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.StorePath = storePath
	a, err := app.Open(fs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// newFixture stores playlists "Alpha" (3 tracks) and "Beta" (2 tracks) with
// shuffle off.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{fs: afero.NewMemMapFs(), sched: looptest.New()}
	for _, p := range []string{"/music/alpha/1.mp3", "/music/alpha/2.mp3", "/music/alpha/3.mp3", "/music/beta/1.mp3", "/music/beta/2.mp3"} {
		afero.WriteFile(f.fs, p, []byte("audio"), 0644)
	}
	f.app = openApp(t, f.fs)
	f.a = mustPlaylist(t, f.app, "Alpha", "/music/alpha")
	f.b = mustPlaylist(t, f.app, "Beta", "/music/beta")
	f.app.UpdatePlayerState(func(st *session.PlayerState) error {
		st.Shuffled = false
		return nil
	})
	f.backend = mediatest.New(f.sched)
	return f
}

func mustPlaylist(t *testing.T, a *app.App, name, dir string) library.Playlist {
	t.Helper()
	p, err := a.Library.Create(name, "")
	if err != nil {
		t.Fatal(err)
	}
	p, _, err = a.Library.AddTracks(p.ID, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) player(opts PlayerOptions) *Player {
	opts.Backend = f.backend
	if opts.Graph == nil {
		opts.Graph = f.app.Equalizer()
	}
	opts.Resolver = queue.NewSeeded(1)
	return NewPlayer(f.app, f.sched, syncRunner{f.sched}, opts)
}

func TestNewPlayer_RestoresLastSession(t *testing.T) {
	f := newFixture(t)
	f.app.UpdatePlayerState(func(st *session.PlayerState) error {
		st.CurrentPlaylistID = f.b.ID
		st.CurrentTrackIndex = 1
		return nil
	})

	p := f.player(PlayerOptions{})
	s := p.Snapshot(-1)
	if s.Status.PlaylistName != "Beta" || s.Status.Index != 1 || s.Status.Playing {
		t.Errorf("status = %+v", s.Status)
	}
	if len(s.Tracks) != 2 {
		t.Errorf("tracks = %d, want 2", len(s.Tracks))
	}
	if again := p.Snapshot(s.Rev); again.Tracks != nil {
		t.Error("tracks resent without a playlist change")
	}
}

func TestNewPlayer_FallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	f.app.Session.SetDefaultPlaylistID(f.a.ID)

	s := f.player(PlayerOptions{}).Snapshot(-1)
	if s.Status.PlaylistName != "Alpha" || s.Status.Index != 0 {
		t.Errorf("status = %+v", s.Status)
	}
}

func TestNewPlayer_OverrideWithAutoplay(t *testing.T) {
	f := newFixture(t)
	f.app.UpdatePlayerState(func(st *session.PlayerState) error {
		st.CurrentPlaylistID = f.b.ID
		return nil
	})

	p := f.player(PlayerOptions{Playlist: &f.a, Autoplay: true})
	s := p.Snapshot(-1)
	if s.Status.PlaylistName != "Alpha" || !s.Status.Playing {
		t.Errorf("status = %+v", s.Status)
	}
	st, _ := f.app.Session.Restore()
	if st.CurrentPlaylistID != f.a.ID {
		t.Errorf("persisted playlist = %q, want %q", st.CurrentPlaylistID, f.a.ID)
	}
}

func TestSwitchPlaylist_Wraps(t *testing.T) {
	f := newFixture(t)
	p := f.player(PlayerOptions{Playlist: &f.a})

	for _, tt := range []struct {
		delta int
		want  string
	}{
		{1, "Beta"},
		{1, "Alpha"},
		{-1, "Beta"},
	} {
		name, err := p.SwitchPlaylist(tt.delta)
		if err != nil || name != tt.want {
			t.Fatalf("SwitchPlaylist(%d) = %q, %v, want %q", tt.delta, name, err, tt.want)
		}
		if got := p.Snapshot(-1).Status.PlaylistName; got != tt.want {
			t.Fatalf("loaded %q, want %q", got, tt.want)
		}
	}
}

func TestCycleEQ(t *testing.T) {
	f := newFixture(t)
	p := f.player(PlayerOptions{})

	name, err := p.CycleEQ()
	if err != nil || name != "pop" {
		t.Fatalf("CycleEQ = %q, %v", name, err)
	}
	stored, _ := f.app.Session.Equalizer()
	if eq.MatchPreset(stored) != "pop" {
		t.Errorf("stored preset = %q", eq.MatchPreset(stored))
	}
	if got := p.Snapshot(-1).EQ; got != "pop" {
		t.Errorf("snapshot eq = %q", got)
	}

	f.app.Session.SetSafeMode(true)
	if _, err := p.CycleEQ(); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("CycleEQ in safe mode: err = %v", err)
	}
}

func TestReload_AppliesExternalChanges(t *testing.T) {
	f := newFixture(t)
	p := f.player(PlayerOptions{Playlist: &f.a})
	rev := p.Snapshot(-1).Rev

	other := openApp(t, f.fs)
	other.Library.RemoveTrack(f.a.ID, 2)
	other.UpdatePlayerState(func(st *session.PlayerState) error {
		st.Volume = 0.2
		return nil
	})
	other.Session.SetSafeMode(true)

	if _, err := f.app.Store.Reload(); err != nil {
		t.Fatal(err)
	}
	p.reload()

	s := p.Snapshot(rev)
	if len(s.Tracks) != 2 || s.Status.TrackCount != 2 {
		t.Errorf("tracks after reload = %d", len(s.Tracks))
	}
	if s.Status.Volume != 0.2 {
		t.Errorf("volume = %v, want 0.2", s.Status.Volume)
	}
	if !s.Status.SafeMode {
		t.Error("safe mode not picked up")
	}
}

func TestReload_CurrentPlaylistDeleted(t *testing.T) {
	f := newFixture(t)
	p := f.player(PlayerOptions{Playlist: &f.b})

	other := openApp(t, f.fs)
	if err := other.DeletePlaylist(f.b.ID); err != nil {
		t.Fatal(err)
	}
	f.app.Store.Reload()
	p.reload()

	s := p.Snapshot(-1)
	if s.Status.PlaylistName != "" || s.Status.HasTrack {
		t.Errorf("status = %+v", s.Status)
	}
	if s.Notice.Level != transport.NoticeWarning || s.Notice.Text == "" {
		t.Errorf("notice = %+v", s.Notice)
	}
}
