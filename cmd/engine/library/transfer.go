package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/units"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// ExportVersion is written to every export file.
const ExportVersion = "1.0"

// maxImportSize caps how much of an import file is read.
var maxImportSize int64 = 32 << 20

// ExportFile is the document written by Export and read by Import.
type ExportFile struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Settings   *ExportSettings  `json:"settings,omitempty"`
	Playlists  []ExportPlaylist `json:"playlists"`
}

// ExportSettings travel with the playlists. Nil fields were absent in the file.
type ExportSettings struct {
	Volume            *float64    `json:"volume,omitempty"`
	CrossfadeEnabled  *bool       `json:"crossfadeEnabled,omitempty"`
	CrossfadeDuration *float64    `json:"crossfadeDuration,omitempty"`
	FadeInDuration    *float64    `json:"fadeInDuration,omitempty"`
	FadeOutDuration   *float64    `json:"fadeOutDuration,omitempty"`
	DefaultPlaylistID *string     `json:"defaultPlaylistId"`
	EqualizerSettings eq.Settings `json:"equalizerSettings,omitempty"`
}

type ExportPlaylist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tracks      []ExportTrack `json:"tracks"`
}

type ExportTrack struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Export writes every playlist plus settings as indented JSON.
func (l *Library) Export(w io.Writer, settings ExportSettings, now time.Time) (int, error) {
	playlists := l.List()
	if len(playlists) == 0 {
		return 0, errs.Validation("no playlists to export")
	}
	doc := ExportFile{
		Version:    ExportVersion,
		ExportDate: now.UTC(),
		Settings:   &settings,
		Playlists: lo.Map(playlists, func(p Playlist, _ int) ExportPlaylist {
			return ExportPlaylist{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Tracks: lo.Map(p.Tracks, func(t Track, _ int) ExportTrack {
					return ExportTrack{Path: t.Path, Title: t.Title}
				}),
			}
		}),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, err
	}
	return len(playlists), nil
}

// ExportTo writes the export document to path on the library's filesystem.
func (l *Library) ExportTo(path string, settings ExportSettings, now time.Time) (int, error) {
	var buf bytes.Buffer
	n, err := l.Export(&buf, settings, now)
	if err != nil {
		return 0, err
	}
	if err := afero.WriteFile(l.fs, path, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

// ImportedSettings holds the imported settings that passed validation.
type ImportedSettings struct {
	Volume            *float64
	CrossfadeEnabled  *bool
	CrossfadeDuration *time.Duration
	FadeInDuration    *time.Duration
	FadeOutDuration   *time.Duration
	Equalizer         eq.Settings
	// DefaultPlaylistID is the new id of the imported default playlist.
	DefaultPlaylistID string
}

// ImportResult summarizes an import.
type ImportResult struct {
	Playlists []Playlist
	Skipped   int
	Settings  ImportedSettings
}

// Summary is the message shown to the user.
func (r ImportResult) Summary() string {
	msg := fmt.Sprintf("Imported %d %s successfully", len(r.Playlists), plural(len(r.Playlists), "playlist"))
	if r.Skipped > 0 {
		msg += fmt.Sprintf(" (%d missing %s skipped)", r.Skipped, plural(r.Skipped, "track"))
	}
	return msg
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

type importDoc struct {
	Settings  *ExportSettings `json:"settings"`
	Playlists json.RawMessage `json:"playlists"`
}

// Import parses an export document and appends its playlists. Nothing is
// written unless the whole document parses and at least one playlist
// survives. Settings are returned for the caller to apply.
func (l *Library) Import(r io.Reader) (ImportResult, error) {
	var res ImportResult
	data, err := io.ReadAll(io.LimitReader(r, maxImportSize+1))
	if err != nil {
		return res, err
	}
	if int64(len(data)) > maxImportSize {
		return res, fmt.Errorf("%w: file is larger than %d bytes", errs.ErrImportFormat, maxImportSize)
	}
	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return res, fmt.Errorf("%w: %v", errs.ErrImportFormat, err)
	}
	raw := bytes.TrimSpace(doc.Playlists)
	if len(raw) == 0 || raw[0] != '[' {
		return res, fmt.Errorf("%w: missing playlists array", errs.ErrImportFormat)
	}
	var incoming []ExportPlaylist
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return res, fmt.Errorf("%w: %v", errs.ErrImportFormat, err)
	}

	l.mu.RLock()
	taken := lo.SliceToMap(l.playlists, func(p Playlist) (string, struct{}) {
		return strings.ToLower(p.Name), struct{}{}
	})
	l.mu.RUnlock()

	newIDs := map[string]string{}
	for _, in := range incoming {
		var tracks []Track
		for _, et := range in.Tracks {
			if !l.exists(et.Path) {
				res.Skipped++
				continue
			}
			t, err := l.BuildTrack(et.Path, et.Title)
			if err != nil {
				res.Skipped++
				continue
			}
			t.Artist = UnknownArtist
			t.Album = ""
			tracks = append(tracks, t)
		}
		if len(tracks) == 0 {
			slog.Info("dropping imported playlist with no surviving tracks", "name", in.Name)
			continue
		}

		name := uniqueName(strings.TrimSpace(in.Name), taken)
		taken[strings.ToLower(name)] = struct{}{}
		p := Playlist{ID: uuid.NewString(), Name: name, Description: in.Description, Tracks: tracks}
		res.Playlists = append(res.Playlists, p)
		if in.ID != "" {
			newIDs[in.ID] = p.ID
		}
	}
	if len(res.Playlists) == 0 {
		return res, errs.Validation("no valid playlists found to import")
	}

	l.mu.Lock()
	l.playlists = append(l.playlists, res.Playlists...)
	err = l.save()
	l.mu.Unlock()
	if err != nil {
		return res, err
	}

	if doc.Settings != nil {
		res.Settings = importSettings(*doc.Settings, newIDs)
	}
	return res, nil
}

func uniqueName(name string, taken map[string]struct{}) string {
	if name == "" {
		name = "Imported playlist"
	}
	candidate := name
	for n := 1; ; n++ {
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

func importSettings(s ExportSettings, newIDs map[string]string) ImportedSettings {
	var out ImportedSettings
	if s.Volume != nil && *s.Volume >= 0 && *s.Volume <= 1 {
		out.Volume = s.Volume
	}
	out.CrossfadeEnabled = s.CrossfadeEnabled
	out.CrossfadeDuration = positiveSeconds(s.CrossfadeDuration)
	out.FadeInDuration = positiveSeconds(s.FadeInDuration)
	out.FadeOutDuration = positiveSeconds(s.FadeOutDuration)
	if len(s.EqualizerSettings) > 0 {
		out.Equalizer = s.EqualizerSettings
	}
	if s.DefaultPlaylistID != nil {
		out.DefaultPlaylistID = newIDs[*s.DefaultPlaylistID]
	}
	return out
}

func positiveSeconds(v *float64) *time.Duration {
	if v == nil || *v <= 0 {
		return nil
	}
	d := units.Seconds(*v)
	return &d
}
