// Package library manages the stored playlists: creation, track editing,
// validation against the filesystem, and import/export.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/media"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// StoreKey is the key-value key holding the playlist array.
const StoreKey = "playlists"

// UnknownDuration is shown when a track's length could not be probed.
const UnknownDuration = "Unknown"

// UnknownArtist is used when a file carries no artist tag.
const UnknownArtist = "Unknown Artist"

// Track is one file in a playlist. Duration is preformatted as "m:ss".
type Track struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration string `json:"duration"`
	Size     int64  `json:"size"`
}

// DisplayTitle falls back to the file name without extension.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return baseName(t.Path)
}

// Playlist is an ordered list of tracks. Paths are unique within it.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Tracks      []Track `json:"tracks"`
}

// Clone returns a deep copy, so the caller may hold it while the library changes.
func (p Playlist) Clone() Playlist {
	p.Tracks = slices.Clone(p.Tracks)
	return p
}

// Store is the subset of the key-value store the library needs.
type Store interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
}

// Library is the in-memory copy of the stored playlists. Every mutation is
// written through to the store before it returns.
type Library struct {
	mu        sync.RWMutex
	fs        afero.Fs
	store     Store
	prober    Prober
	playlists []Playlist
}

// Open loads the playlists from the store.
func Open(fs afero.Fs, store Store, prober Prober) (*Library, error) {
	l := &Library{fs: fs, store: store, prober: prober}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload replaces the in-memory playlists with the stored ones.
func (l *Library) Reload() error {
	var playlists []Playlist
	if _, err := l.store.Get(StoreKey, &playlists); err != nil {
		return fmt.Errorf("%w: reading playlists: %v", errs.ErrPersistence, err)
	}
	for i := range playlists {
		if playlists[i].Tracks == nil {
			playlists[i].Tracks = []Track{}
		}
	}
	l.mu.Lock()
	l.playlists = playlists
	l.mu.Unlock()
	return nil
}

// save must be called with the write lock held.
func (l *Library) save() error {
	if err := l.store.Set(StoreKey, l.playlists); err != nil {
		return fmt.Errorf("%w: writing playlists: %v", errs.ErrPersistence, err)
	}
	return nil
}

// List returns copies of all playlists in stored order.
func (l *Library) List() []Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Map(l.playlists, func(p Playlist, _ int) Playlist { return p.Clone() })
}

// Get looks a playlist up by id.
func (l *Library) Get(id string) (Playlist, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := lo.Find(l.playlists, func(p Playlist) bool { return p.ID == id })
	return p.Clone(), ok
}

// FindByName matches case-insensitively.
func (l *Library) FindByName(name string) (Playlist, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := lo.Find(l.playlists, func(p Playlist) bool { return strings.EqualFold(p.Name, name) })
	return p.Clone(), ok
}

// Resolve accepts an id, a name, or a 1-based position in the list.
func (l *Library) Resolve(ref string) (Playlist, bool) {
	if p, ok := l.Get(ref); ok {
		return p, true
	}
	if p, ok := l.FindByName(ref); ok {
		return p, true
	}
	var n int
	if _, err := fmt.Sscanf(ref, "%d", &n); err == nil && fmt.Sprint(n) == ref {
		l.mu.RLock()
		defer l.mu.RUnlock()
		if n >= 1 && n <= len(l.playlists) {
			return l.playlists[n-1].Clone(), true
		}
	}
	return Playlist{}, false
}

func (l *Library) nameTaken(name, exceptID string) bool {
	return lo.ContainsBy(l.playlists, func(p Playlist) bool {
		return p.ID != exceptID && strings.EqualFold(p.Name, name)
	})
}

// Create adds an empty playlist.
func (l *Library) Create(name, description string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, errs.Validation("playlist name is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nameTaken(name, "") {
		return Playlist{}, errs.Validation("a playlist named %q already exists", name)
	}
	p := Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Tracks:      []Track{},
	}
	l.playlists = append(l.playlists, p)
	if err := l.save(); err != nil {
		return Playlist{}, err
	}
	slog.Debug("created playlist", "id", p.ID, "name", p.Name)
	return p.Clone(), nil
}

// update applies fn to the playlist with the given id and saves.
func (l *Library) update(id string, fn func(p *Playlist) error) (Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.playlists, func(p Playlist) bool { return p.ID == id })
	if i < 0 {
		return Playlist{}, errs.Validation("playlist %s not found", id)
	}
	p := l.playlists[i].Clone()
	if err := fn(&p); err != nil {
		return Playlist{}, err
	}
	l.playlists[i] = p
	if err := l.save(); err != nil {
		return Playlist{}, err
	}
	return p.Clone(), nil
}

// Rename changes a playlist's name and description.
func (l *Library) Rename(id, name, description string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, errs.Validation("playlist name is required")
	}
	return l.update(id, func(p *Playlist) error {
		if l.nameTaken(name, id) {
			return errs.Validation("a playlist named %q already exists", name)
		}
		p.Name = name
		p.Description = strings.TrimSpace(description)
		return nil
	})
}

// Delete removes a playlist.
func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.playlists, func(p Playlist) bool { return p.ID == id })
	if i < 0 {
		return errs.Validation("playlist %s not found", id)
	}
	l.playlists = slices.Delete(l.playlists, i, i+1)
	return l.save()
}

// Clear removes every track from a playlist.
func (l *Library) Clear(id string) (Playlist, error) {
	return l.update(id, func(p *Playlist) error {
		p.Tracks = []Track{}
		return nil
	})
}

// AddResult reports what AddTracks did.
type AddResult struct {
	Added      int
	Duplicates int
	Skipped    []string
}

// AddTracks appends files to a playlist. Directories are walked for audio
// files in lexical order. Paths already in the playlist are skipped.
func (l *Library) AddTracks(id string, paths []string) (Playlist, AddResult, error) {
	var res AddResult
	files, skipped := l.expand(paths)
	res.Skipped = skipped

	var probed []Track
	for _, path := range files {
		t, err := l.BuildTrack(path, "")
		if err != nil {
			slog.Warn("failed to read track", "path", path, "error", err)
			res.Skipped = append(res.Skipped, path)
			continue
		}
		probed = append(probed, t)
	}

	p, err := l.update(id, func(p *Playlist) error {
		seen := lo.SliceToMap(p.Tracks, func(t Track) (string, struct{}) { return t.Path, struct{}{} })
		for _, t := range probed {
			if _, dup := seen[t.Path]; dup {
				res.Duplicates++
				continue
			}
			seen[t.Path] = struct{}{}
			p.Tracks = append(p.Tracks, t)
			res.Added++
		}
		return nil
	})
	return p, res, err
}

func (l *Library) expand(paths []string) (files, skipped []string) {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err == nil {
			path = abs
		}
		info, err := l.fs.Stat(path)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		if !info.IsDir() {
			if media.IsAudioFile(path) {
				files = append(files, path)
			} else {
				skipped = append(skipped, path)
			}
			continue
		}
		err = afero.Walk(l.fs, path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !fi.IsDir() && media.IsAudioFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			slog.Warn("failed to walk directory", "path", path, "error", err)
		}
	}
	return files, skipped
}

// RemoveTrack drops the track at index.
func (l *Library) RemoveTrack(id string, index int) (Playlist, error) {
	return l.update(id, func(p *Playlist) error {
		if index < 0 || index >= len(p.Tracks) {
			return errs.Validation("track %d out of range (playlist has %d)", index+1, len(p.Tracks))
		}
		p.Tracks = slices.Delete(p.Tracks, index, index+1)
		return nil
	})
}

// MoveTrack moves the track at from so that it ends up at to.
func (l *Library) MoveTrack(id string, from, to int) (Playlist, error) {
	return l.update(id, func(p *Playlist) error {
		n := len(p.Tracks)
		if from < 0 || from >= n || to < 0 || to >= n {
			return errs.Validation("track position out of range (playlist has %d)", n)
		}
		t := p.Tracks[from]
		p.Tracks = slices.Insert(slices.Delete(p.Tracks, from, from+1), to, t)
		return nil
	})
}

// ValidateResult reports what Validate changed.
type ValidateResult struct {
	Missing []Track
	Updated int
}

// Summary matches the wording shown after a validation pass.
func (r ValidateResult) Summary() string {
	switch {
	case len(r.Missing) > 0:
		return fmt.Sprintf("%d missing track(s) removed. %d duration(s) updated.", len(r.Missing), r.Updated)
	case r.Updated > 0:
		return fmt.Sprintf("%d track duration(s) detected and updated.", r.Updated)
	default:
		return "All tracks validated successfully."
	}
}

// Validate drops tracks whose files are gone and fills in unknown durations
// across every playlist.
func (l *Library) Validate() (ValidateResult, error) {
	var res ValidateResult
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for i := range l.playlists {
		p := &l.playlists[i]
		kept := make([]Track, 0, len(p.Tracks))
		for _, t := range p.Tracks {
			if !l.exists(t.Path) {
				res.Missing = append(res.Missing, t)
				changed = true
				continue
			}
			if needsDuration(t.Duration) {
				if d := l.probeDuration(t.Path); d != t.Duration {
					t.Duration = d
					res.Updated++
					changed = true
				}
			}
			kept = append(kept, t)
		}
		p.Tracks = kept
	}
	if !changed {
		return res, nil
	}
	return res, l.save()
}

func needsDuration(d string) bool {
	return d == "" || d == "0:00" || d == UnknownDuration
}

func (l *Library) exists(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
