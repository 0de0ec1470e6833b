// Package session persists the player's state between runs: the player
// state record, equalizer gains, the default playlist and the safe mode flag.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/units"
)

// Store keys.
const (
	KeyPlayerState     = "playerState"
	KeyEqualizer       = "equalizerSettings"
	KeyDefaultPlaylist = "defaultPlaylistId"
	KeySafeMode        = "safeModeEnabled"
)

// PlayerState is rewritten whole after every mutating transport action.
type PlayerState struct {
	CurrentPlaylistID string
	CurrentTrackIndex int
	Volume            float64
	Shuffled          bool
	Repeat            queue.RepeatMode
	CrossfadeEnabled  bool
	CrossfadeDuration time.Duration
	FadeOutDuration   time.Duration
	FadeInDuration    time.Duration
}

func DefaultPlayerState() PlayerState {
	return PlayerState{
		Volume:            0.7,
		Shuffled:          true,
		Repeat:            queue.RepeatAll,
		CrossfadeEnabled:  true,
		CrossfadeDuration: 3 * time.Second,
		FadeOutDuration:   3 * time.Second,
		FadeInDuration:    3 * time.Second,
	}
}

// wireState is the stored JSON shape. Durations are seconds.
type wireState struct {
	CurrentPlaylistID string  `json:"currentPlaylistId,omitempty"`
	CurrentTrackIndex int     `json:"currentTrackIndex"`
	Volume            float64 `json:"volume"`
	IsShuffled        bool    `json:"isShuffled"`
	RepeatMode        string  `json:"repeatMode"`
	CrossfadeEnabled  bool    `json:"crossfadeEnabled"`
	CrossfadeDuration float64 `json:"crossfadeDuration"`
	FadeOutDuration   float64 `json:"fadeOutDuration"`
	FadeInDuration    float64 `json:"fadeInDuration"`
}

func (s PlayerState) wire() wireState {
	return wireState{
		CurrentPlaylistID: s.CurrentPlaylistID,
		CurrentTrackIndex: s.CurrentTrackIndex,
		Volume:            s.Volume,
		IsShuffled:        s.Shuffled,
		RepeatMode:        string(s.Repeat),
		CrossfadeEnabled:  s.CrossfadeEnabled,
		CrossfadeDuration: s.CrossfadeDuration.Seconds(),
		FadeOutDuration:   s.FadeOutDuration.Seconds(),
		FadeInDuration:    s.FadeInDuration.Seconds(),
	}
}

// Store is the key-value contract the bridge writes through.
type Store interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
	Clear() error
}

// Bridge reads and writes session data. Every error it returns wraps
// errs.ErrPersistence.
type Bridge struct {
	store Store
}

func New(store Store) *Bridge {
	return &Bridge{store: store}
}

// Save overwrites the stored player state.
func (b *Bridge) Save(s PlayerState) error {
	if err := b.store.Set(KeyPlayerState, s.wire()); err != nil {
		return fmt.Errorf("%w: saving player state: %v", errs.ErrPersistence, err)
	}
	return nil
}

// Restore returns the stored player state. Absent or invalid fields take
// their default individually, so a damaged record never fails startup.
func (b *Bridge) Restore() (PlayerState, error) {
	st := DefaultPlayerState()
	var fields map[string]json.RawMessage
	found, err := b.store.Get(KeyPlayerState, &fields)
	if err != nil {
		slog.Warn("stored player state is unreadable, using defaults", "error", err)
		return st, nil
	}
	if !found {
		return st, nil
	}

	field(fields, "currentPlaylistId", func(v string) bool {
		st.CurrentPlaylistID = v
		return true
	})
	field(fields, "currentTrackIndex", func(v int) bool {
		if v < 0 {
			return false
		}
		st.CurrentTrackIndex = v
		return true
	})
	field(fields, "volume", func(v float64) bool {
		if v < 0 || v > 1 {
			return false
		}
		st.Volume = v
		return true
	})
	field(fields, "isShuffled", func(v bool) bool {
		st.Shuffled = v
		return true
	})
	field(fields, "repeatMode", func(v string) bool {
		m, err := queue.ParseRepeatMode(v)
		if err != nil {
			return false
		}
		st.Repeat = m
		return true
	})
	field(fields, "crossfadeEnabled", func(v bool) bool {
		st.CrossfadeEnabled = v
		return true
	})
	positive := func(dst *time.Duration) func(float64) bool {
		return func(v float64) bool {
			if v <= 0 {
				return false
			}
			*dst = units.Seconds(v)
			return true
		}
	}
	field(fields, "crossfadeDuration", positive(&st.CrossfadeDuration))
	field(fields, "fadeOutDuration", positive(&st.FadeOutDuration))
	field(fields, "fadeInDuration", positive(&st.FadeInDuration))
	return st, nil
}

// field decodes one stored field and hands it to apply. A field that fails
// to decode or that apply rejects keeps its default.
func field[T any](fields map[string]json.RawMessage, name string, apply func(T) bool) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil || !apply(v) {
		slog.Warn("ignoring invalid stored field", "field", name, "value", string(raw))
	}
}

// Equalizer returns the stored band gains, if any.
func (b *Bridge) Equalizer() (eq.Settings, bool) {
	var s eq.Settings
	found, err := b.store.Get(KeyEqualizer, &s)
	if err != nil {
		slog.Warn("stored equalizer settings are unreadable", "error", err)
		return nil, false
	}
	return s, found && len(s) > 0
}

func (b *Bridge) SaveEqualizer(s eq.Settings) error {
	if err := b.store.Set(KeyEqualizer, s); err != nil {
		return fmt.Errorf("%w: saving equalizer settings: %v", errs.ErrPersistence, err)
	}
	return nil
}

// DefaultPlaylistID returns "" when none is set.
func (b *Bridge) DefaultPlaylistID() string {
	var id string
	if _, err := b.store.Get(KeyDefaultPlaylist, &id); err != nil {
		slog.Warn("stored default playlist is unreadable", "error", err)
		return ""
	}
	return id
}

// SetDefaultPlaylistID stores id, or clears the setting when id is empty.
func (b *Bridge) SetDefaultPlaylistID(id string) error {
	var err error
	if id == "" {
		err = b.store.Delete(KeyDefaultPlaylist)
	} else {
		err = b.store.Set(KeyDefaultPlaylist, id)
	}
	if err != nil {
		return fmt.Errorf("%w: saving default playlist: %v", errs.ErrPersistence, err)
	}
	return nil
}

func (b *Bridge) SafeMode() bool {
	var on bool
	if _, err := b.store.Get(KeySafeMode, &on); err != nil {
		slog.Warn("stored safe mode flag is unreadable", "error", err)
		return false
	}
	return on
}

func (b *Bridge) SetSafeMode(on bool) error {
	if err := b.store.Set(KeySafeMode, on); err != nil {
		return fmt.Errorf("%w: saving safe mode: %v", errs.ErrPersistence, err)
	}
	return nil
}

// Reset removes every stored key, playlists included.
func (b *Bridge) Reset() error {
	if err := b.store.Clear(); err != nil {
		return fmt.Errorf("%w: clearing store: %v", errs.ErrPersistence, err)
	}
	return nil
}

// PlaylistLookup finds playlists by id.
type PlaylistLookup interface {
	Get(id string) (library.Playlist, bool)
}

// StartupPlaylist chooses what to load at startup: the session's playlist
// if it still exists, otherwise the default playlist. A default id that no
// longer resolves is cleared. The returned index is valid for the playlist.
func (b *Bridge) StartupPlaylist(st PlayerState, lib PlaylistLookup) (library.Playlist, int, bool) {
	if st.CurrentPlaylistID != "" {
		if p, ok := lib.Get(st.CurrentPlaylistID); ok {
			index := st.CurrentTrackIndex
			if index < 0 || index >= len(p.Tracks) {
				index = 0
			}
			return p, index, true
		}
		slog.Info("last session playlist no longer exists", "id", st.CurrentPlaylistID)
	}

	id := b.DefaultPlaylistID()
	if id == "" {
		return library.Playlist{}, 0, false
	}
	if p, ok := lib.Get(id); ok {
		return p, 0, true
	}
	slog.Info("clearing missing default playlist", "id", id)
	if err := b.SetDefaultPlaylistID(""); err != nil {
		slog.Warn("failed to clear default playlist", "error", err)
	}
	return library.Playlist{}, 0, false
}
