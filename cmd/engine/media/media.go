// Package media is the decode/playback primitive behind each playback slot.
package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Listener receives a source's asynchronous events on the control goroutine.
type Listener interface {
	Ended()
	Failed(err error)
}

// Source is one decodable audio stream with its own gain stage.
//
// Load decodes in the background and calls done on the control goroutine.
// A newer Load supersedes an older one; the superseded done is never called.
// After a successful load the source is paused at position 0.
type Source interface {
	Load(path string, done func(error))
	Unload()
	Loaded() bool
	Play() error
	Pause()
	Playing() bool
	Position() time.Duration
	Seek(d time.Duration) error
	Duration() time.Duration
	// Gain returns the target gain last set.
	Gain() float64
	// SetGain moves linearly to target over ramp; zero ramp is immediate.
	SetGain(target float64, ramp time.Duration)
	SetListener(l Listener)
}

// Backend creates sources that share one audio output.
type Backend interface {
	NewSource(name string) Source
	Close() error
}

// AudioExtensions are the file types the library accepts.
var AudioExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac"}

// IsAudioFile reports whether path has an accepted audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
