package library

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dhowden/tag"
	"github.com/gigurra/crossfader/cmd/engine/media"
	"github.com/gigurra/crossfader/cmd/engine/units"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// Metadata is what a Prober learns about a file. A zero Duration means unknown.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// Prober reads tags and length from an audio file.
type Prober interface {
	Probe(path string) (Metadata, error)
}

// TagProber reads ID3/MP4/FLAC/Ogg tags with dhowden/tag and measures the
// length by decoding the stream header. Results are cached per path, size
// and modification time.
type TagProber struct {
	fs    afero.Fs
	cache *lru.Cache[string, Metadata]
}

func NewTagProber(fs afero.Fs, size int) *TagProber {
	cache, err := lru.New[string, Metadata](max(size, 1))
	if err != nil {
		panic(err)
	}
	return &TagProber{fs: fs, cache: cache}
}

func (p *TagProber) Probe(path string) (Metadata, error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if m, ok := p.cache.Get(key); ok {
		return m, nil
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	var m Metadata
	if t, err := tag.ReadFrom(f); err == nil {
		m.Title = t.Title()
		m.Artist = t.Artist()
		m.Album = t.Album()
	} else {
		slog.Debug("no tags", "path", path, "error", err)
	}

	// ProbeDuration consumes and closes its reader, so it gets a fresh handle.
	if rc, err := p.fs.Open(path); err == nil {
		if d, err := media.ProbeDuration(rc, path); err == nil {
			m.Duration = d
		} else {
			slog.Debug("could not measure duration", "path", path, "error", err)
		}
	}

	p.cache.Add(key, m)
	return m, nil
}

// BuildTrack stats and probes path. A non-empty title overrides the tag.
// Only a failed stat is an error; unreadable tags fall back to defaults.
func (l *Library) BuildTrack(path, title string) (Track, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return Track{}, err
	}
	t := Track{
		Path:     path,
		Title:    title,
		Artist:   UnknownArtist,
		Duration: UnknownDuration,
		Size:     info.Size(),
	}
	if l.prober == nil {
		if t.Title == "" {
			t.Title = baseName(path)
		}
		return t, nil
	}

	m, err := l.prober.Probe(path)
	if err != nil {
		slog.Debug("probe failed", "path", path, "error", err)
	}
	if t.Title == "" {
		t.Title = m.Title
	}
	if t.Title == "" {
		t.Title = baseName(path)
	}
	if m.Artist != "" {
		t.Artist = m.Artist
	}
	t.Album = m.Album
	if m.Duration > 0 {
		t.Duration = units.FormatDuration(m.Duration)
	}
	return t, nil
}

func (l *Library) probeDuration(path string) string {
	if l.prober == nil {
		return UnknownDuration
	}
	m, err := l.prober.Probe(path)
	if err != nil || m.Duration <= 0 {
		return UnknownDuration
	}
	return units.FormatDuration(m.Duration)
}
