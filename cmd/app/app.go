// Package app opens the pieces every crossfader command works on: the
// config, the key-value store, the playlist library and the session bridge.
package app

import (
	"fmt"
	"time"

	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/config"
	"github.com/gigurra/crossfader/cmd/common/logging"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/kvstore"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/session"
	"github.com/spf13/afero"
)

type App struct {
	Config  *config.Config
	FS      afero.Fs
	Store   *kvstore.Store
	Library *library.Library
	Session *session.Bridge
}

// Setup loads the config, starts logging and opens the store. quiet keeps
// log output off the terminal.
func Setup(quiet bool) (*App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	closeLog := logging.Setup(common.LogPath(), cfg.LogLevel(), quiet)
	a, err := Open(afero.NewOsFs(), cfg)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, closeLog, nil
}

// Run opens the app for a one-shot command, runs fn and exits non-zero on
// failure.
func Run(fn func(a *App) error) {
	a, closeLog, err := Setup(false)
	common.ExitOnError(err)
	err = fn(a)
	closeLog()
	common.ExitOnError(err)
}

func Open(fs afero.Fs, cfg *config.Config) (*App, error) {
	store, err := kvstore.Open(fs, cfg.ResolvedStorePath())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	lib, err := library.Open(fs, store, library.NewTagProber(fs, cfg.Player.MetadataCache))
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		FS:      fs,
		Store:   store,
		Library: lib,
		Session: session.New(store),
	}, nil
}

// Guard refuses changes to what while safe mode is on.
func (a *App) Guard(what string) error {
	if a.Session.SafeMode() {
		return errs.Validation("cannot %s while safe mode is enabled", what)
	}
	return nil
}

// Resolve finds a playlist by id, name or 1-based position.
func (a *App) Resolve(ref string) (library.Playlist, error) {
	p, ok := a.Library.Resolve(ref)
	if !ok {
		return library.Playlist{}, errs.Validation("no playlist matches %q", ref)
	}
	return p, nil
}

// UpdatePlayerState applies fn to the stored player state and saves it.
func (a *App) UpdatePlayerState(fn func(st *session.PlayerState) error) (session.PlayerState, error) {
	st, err := a.Session.Restore()
	if err != nil {
		return st, err
	}
	if err := fn(&st); err != nil {
		return st, err
	}
	return st, a.Session.Save(st)
}

// ExportSettings gathers what an export file carries besides playlists.
func (a *App) ExportSettings() (library.ExportSettings, error) {
	st, err := a.Session.Restore()
	if err != nil {
		return library.ExportSettings{}, err
	}
	crossfade := st.CrossfadeDuration.Seconds()
	fadeIn := st.FadeInDuration.Seconds()
	fadeOut := st.FadeOutDuration.Seconds()
	s := library.ExportSettings{
		Volume:            &st.Volume,
		CrossfadeEnabled:  &st.CrossfadeEnabled,
		CrossfadeDuration: &crossfade,
		FadeInDuration:    &fadeIn,
		FadeOutDuration:   &fadeOut,
		EqualizerSettings: eq.Flat(),
	}
	if settings, ok := a.Session.Equalizer(); ok {
		s.EqualizerSettings = settings
	}
	if id := a.Session.DefaultPlaylistID(); id != "" {
		s.DefaultPlaylistID = &id
	}
	return s, nil
}

// Equalizer returns a graph holding the stored band gains, flat when none
// are stored.
func (a *App) Equalizer() *eq.Graph {
	g := eq.NewGraph()
	if s, ok := a.Session.Equalizer(); ok {
		g.Apply(s)
	}
	return g
}

// Export writes every playlist and the settings to path.
func (a *App) Export(path string, now time.Time) (int, error) {
	if err := a.Guard("export"); err != nil {
		return 0, err
	}
	settings, err := a.ExportSettings()
	if err != nil {
		return 0, err
	}
	return a.Library.ExportTo(path, settings, now)
}

// Import reads an export file, appends its playlists and applies the
// settings it carries.
func (a *App) Import(path string) (library.ImportResult, error) {
	if err := a.Guard("import"); err != nil {
		return library.ImportResult{}, err
	}
	f, err := a.FS.Open(path)
	if err != nil {
		return library.ImportResult{}, errs.Validation("cannot open %s: %v", path, err)
	}
	defer f.Close()

	res, err := a.Library.Import(f)
	if err != nil {
		return res, err
	}
	return res, a.applyImported(res.Settings)
}

func (a *App) applyImported(s library.ImportedSettings) error {
	_, err := a.UpdatePlayerState(func(st *session.PlayerState) error {
		if s.Volume != nil {
			st.Volume = *s.Volume
		}
		if s.CrossfadeEnabled != nil {
			st.CrossfadeEnabled = *s.CrossfadeEnabled
		}
		if s.CrossfadeDuration != nil {
			st.CrossfadeDuration = *s.CrossfadeDuration
		}
		if s.FadeInDuration != nil {
			st.FadeInDuration = *s.FadeInDuration
		}
		if s.FadeOutDuration != nil {
			st.FadeOutDuration = *s.FadeOutDuration
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(s.Equalizer) > 0 {
		if err := a.Session.SaveEqualizer(s.Equalizer); err != nil {
			return err
		}
	}
	if s.DefaultPlaylistID != "" {
		return a.Session.SetDefaultPlaylistID(s.DefaultPlaylistID)
	}
	return nil
}

// DeletePlaylist removes a playlist and clears any reference to it.
func (a *App) DeletePlaylist(id string) error {
	if err := a.Library.Delete(id); err != nil {
		return err
	}
	if a.Session.DefaultPlaylistID() == id {
		if err := a.Session.SetDefaultPlaylistID(""); err != nil {
			return err
		}
	}
	st, err := a.Session.Restore()
	if err != nil || st.CurrentPlaylistID != id {
		return err
	}
	st.CurrentPlaylistID = ""
	st.CurrentTrackIndex = 0
	return a.Session.Save(st)
}
