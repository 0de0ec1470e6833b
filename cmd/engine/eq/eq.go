// Package eq is the equalizer graph: nine fixed peaking bands plus a
// dynamics compressor. One Graph holds the parameters; every playback chain
// built from it shares them while keeping its own filter state.
package eq

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/units"
)

// Frequencies are the band centers in Hz.
var Frequencies = [BandCount]int{60, 170, 350, 1000, 3000, 6000, 12000, 14000, 16000}

const (
	BandCount = 9
	Q         = 1.0
	MinGainDB = -12.0
	MaxGainDB = 12.0
)

// Settings is the persisted form: band frequency (as a string key) to gain in dB.
type Settings map[string]float64

// CompressorParams configures the dynamics compressor on the mix.
type CompressorParams struct {
	ThresholdDB float64
	KneeDB      float64
	Ratio       float64
	Attack      time.Duration
	Release     time.Duration
}

// DefaultCompressor returns the fixed compressor configuration.
func DefaultCompressor() CompressorParams {
	return CompressorParams{
		ThresholdDB: -24,
		KneeDB:      30,
		Ratio:       12,
		Attack:      3 * time.Millisecond,
		Release:     250 * time.Millisecond,
	}
}

var presetOrder = []string{"flat", "pop", "rock", "jazz", "classical", "bass-boost"}

var presets = map[string][BandCount]float64{
	"flat":       {0, 0, 0, 0, 0, 0, 0, 0, 0},
	"pop":        {-1, -0.5, 0, 2, 4, 4, 2, 0, -1},
	"rock":       {4, 3, 1, -1, -0.5, 0, 2, 4, 5},
	"jazz":       {2, 1, 0, 1, 3, 3, 2, 1, 0},
	"classical":  {3, 2, 0, 0, -1, -1, 0, 2, 3},
	"bass-boost": {6, 4, 2, 0, -1, -2, 0, 2, 3},
}

// PresetNames lists presets in display order.
func PresetNames() []string {
	return slices.Clone(presetOrder)
}

// Preset returns the settings for a named preset.
func Preset(name string) (Settings, bool) {
	gains, ok := presets[name]
	if !ok {
		return nil, false
	}
	return toSettings(gains), true
}

// Flat returns all bands at 0 dB.
func Flat() Settings {
	s, _ := Preset("flat")
	return s
}

// MatchPreset names the preset equal to s, or "custom".
func MatchPreset(s Settings) string {
	gains := fromSettings(s, [BandCount]float64{})
	for _, name := range presetOrder {
		if presets[name] == gains {
			return name
		}
	}
	return "custom"
}

// NextPreset returns the preset after name in display order, wrapping around.
func NextPreset(name string) string {
	i := slices.Index(presetOrder, name)
	return presetOrder[(i+1)%len(presetOrder)]
}

// BandIndex returns the band position of a center frequency.
func BandIndex(freq int) (int, bool) {
	i := slices.Index(Frequencies[:], freq)
	return i, i >= 0
}

// Graph holds the shared equalizer parameters. Setters run on the control
// goroutine; the audio callback picks changes up through the version counter.
type Graph struct {
	mu         sync.RWMutex
	gains      [BandCount]float64
	compressor CompressorParams
	version    atomic.Uint64
}

// NewGraph creates a flat graph with the default compressor.
func NewGraph() *Graph {
	return &Graph{compressor: DefaultCompressor()}
}

// SetBand sets one band. Gains are clamped to [MinGainDB, MaxGainDB].
func (g *Graph) SetBand(freq int, db float64) error {
	i, ok := BandIndex(freq)
	if !ok {
		return errs.Validation("unknown equalizer band %d Hz", freq)
	}
	g.mu.Lock()
	g.gains[i] = units.Clamp(db, MinGainDB, MaxGainDB)
	g.mu.Unlock()
	g.version.Add(1)
	return nil
}

// Apply replaces band gains from persisted settings. Unknown keys are ignored
// and missing bands keep their current value.
func (g *Graph) Apply(s Settings) {
	g.mu.Lock()
	g.gains = fromSettings(s, g.gains)
	g.mu.Unlock()
	g.version.Add(1)
}

// ApplyPreset loads a named preset.
func (g *Graph) ApplyPreset(name string) error {
	s, ok := Preset(name)
	if !ok {
		return errs.Validation("unknown equalizer preset %q (want one of %v)", name, presetOrder)
	}
	g.Apply(s)
	return nil
}

// Reset sets every band to 0 dB.
func (g *Graph) Reset() {
	g.Apply(Flat())
}

// Settings returns the current band gains in persisted form.
func (g *Graph) Settings() Settings {
	return toSettings(g.Gains())
}

// Gains returns the current band gains in band order.
func (g *Graph) Gains() [BandCount]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gains
}

// Compressor returns the compressor parameters.
func (g *Graph) Compressor() CompressorParams {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.compressor
}

// Version increments on every parameter change.
func (g *Graph) Version() uint64 {
	return g.version.Load()
}

func toSettings(gains [BandCount]float64) Settings {
	s := make(Settings, BandCount)
	for i, f := range Frequencies {
		s[strconv.Itoa(f)] = gains[i]
	}
	return s
}

func fromSettings(s Settings, base [BandCount]float64) [BandCount]float64 {
	out := base
	for key, db := range s {
		freq, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if i, ok := BandIndex(freq); ok {
			out[i] = units.Clamp(db, MinGainDB, MaxGainDB)
		}
	}
	return out
}

// Describe renders settings as "60Hz:+0.0 170Hz:-1.5 ..." in band order.
func Describe(s Settings) string {
	keys := slices.SortedFunc(maps.Keys(s), func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return cmp.Or(cmp.Compare(x, y), strings.Compare(a, b))
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%sHz:%+.1f", k, s[k])
	}
	return strings.Join(parts, " ")
}
