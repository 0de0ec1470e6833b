package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Options configures the audio output.
type Options struct {
	SampleRate int
	Buffer     time.Duration
}

// DefaultOptions is 44.1 kHz with a 100 ms buffer.
func DefaultOptions() Options {
	return Options{SampleRate: 44100, Buffer: 100 * time.Millisecond}
}

// ErrUnsupportedFormat is returned for accepted file types that cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode picks a decoder from the file extension. The returned streamer owns rc.
func Decode(rc io.ReadCloser, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	case ".ogg":
		return vorbis.Decode(rc)
	case ".flac":
		return flac.Decode(rc)
	default:
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Open opens and decodes a file from disk.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return Decode(f, path)
}

// ProbeDuration decodes just enough of r to report its length.
func ProbeDuration(rc io.ReadCloser, path string) (time.Duration, error) {
	stream, format, err := Decode(rc, path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	return format.SampleRate.D(stream.Len()), nil
}
