package eq

import (
	"errors"
	"math"
	"testing"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gopxl/beep/v2"
)

const testRate = beep.SampleRate(44100)

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		s, ok := Preset(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if len(s) != BandCount {
			t.Errorf("preset %q has %d bands", name, len(s))
		}
		if got := MatchPreset(s); got != name {
			t.Errorf("MatchPreset(%s) = %q", name, got)
		}
	}

	rock, _ := Preset("rock")
	if rock["16000"] != 5 || rock["1000"] != -1 {
		t.Errorf("unexpected rock values: %v", rock)
	}
	if _, ok := Preset("dubstep"); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestNextPreset(t *testing.T) {
	if NextPreset("flat") != "pop" {
		t.Error("expected pop after flat")
	}
	if NextPreset("bass-boost") != "flat" {
		t.Error("expected wrap to flat")
	}
	if NextPreset("custom") != "flat" {
		t.Error("custom should restart at flat")
	}
}

func TestGraph_SetBand(t *testing.T) {
	g := NewGraph()
	v := g.Version()

	if err := g.SetBand(1000, 20); err != nil {
		t.Fatal(err)
	}
	if g.Settings()["1000"] != MaxGainDB {
		t.Errorf("gain not clamped: %v", g.Settings()["1000"])
	}
	if g.Version() == v {
		t.Error("version did not change")
	}

	err := g.SetBand(1234, 1)
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGraph_ApplyIgnoresUnknownKeys(t *testing.T) {
	g := NewGraph()
	g.Apply(Settings{"60": 3, "bogus": 9, "99": 4})
	s := g.Settings()
	if s["60"] != 3 {
		t.Errorf("60 Hz = %v, want 3", s["60"])
	}
	if len(s) != BandCount {
		t.Errorf("expected %d bands, got %d", BandCount, len(s))
	}
	if MatchPreset(s) != "custom" {
		t.Error("expected custom")
	}
	g.Reset()
	if MatchPreset(g.Settings()) != "flat" {
		t.Error("Reset should flatten")
	}
}

func TestPeaking_CenterGain(t *testing.T) {
	tests := []struct {
		freq float64
		db   float64
	}{
		{60, 6},
		{1000, -4},
		{12000, 3},
	}

	for _, tt := range tests {
		b := Peaking(tt.freq, tt.db, Q, testRate)
		got := 20 * math.Log10(b.Response(tt.freq, testRate))
		if math.Abs(got-tt.db) > 0.01 {
			t.Errorf("Peaking(%v Hz, %v dB) center response %.3f dB", tt.freq, tt.db, got)
		}
	}
}

func TestPeaking_Bypass(t *testing.T) {
	if !Peaking(1000, 0, Q, testRate).bypass {
		t.Error("0 dB band should bypass")
	}
	if !Peaking(16000, 6, Q, beep.SampleRate(22050)).bypass {
		t.Error("band above Nyquist should bypass")
	}
}

func TestStaticCurve(t *testing.T) {
	p := DefaultCompressor()

	// Far below the knee nothing changes.
	if got := StaticCurve(p, -60); got != -60 {
		t.Errorf("below knee: %v", got)
	}
	// Far above the knee the ratio applies.
	want := p.ThresholdDB + (0-p.ThresholdDB)/p.Ratio
	if got := StaticCurve(p, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("above knee: got %v want %v", got, want)
	}
	// The curve never amplifies and is monotonic.
	prev := math.Inf(-1)
	for in := -80.0; in <= 0; in += 0.5 {
		out := StaticCurve(p, in)
		if out > in+1e-9 {
			t.Fatalf("curve amplifies at %v dB", in)
		}
		if out < prev {
			t.Fatalf("curve not monotonic at %v dB", in)
		}
		prev = out
	}
}

type constStreamer struct{ v float64 }

func (c constStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{c.v, c.v}
	}
	return len(samples), true
}

func (constStreamer) Err() error { return nil }

func TestChain_FlatIsTransparent(t *testing.T) {
	g := NewGraph()
	s := g.NewChain(constStreamer{0.5}, testRate)
	buf := make([][2]float64, 64)
	n, ok := s.Stream(buf)
	if n != 64 || !ok {
		t.Fatalf("unexpected stream result %d %v", n, ok)
	}
	for i, smp := range buf {
		if smp[0] != 0.5 || smp[1] != 0.5 {
			t.Fatalf("sample %d altered: %v", i, smp)
		}
	}
}

func TestChain_PicksUpChanges(t *testing.T) {
	g := NewGraph()
	s := g.NewChain(constStreamer{0.5}, testRate).(*chain)
	if err := g.SetBand(60, 6); err != nil {
		t.Fatal(err)
	}
	buf := make([][2]float64, 16)
	s.Stream(buf)
	if s.bands[0].bypass {
		t.Error("chain did not retune after a band change")
	}
}

func TestCompressor_ReducesLoudSignal(t *testing.T) {
	g := NewGraph()
	s := g.NewCompressor(constStreamer{1.0}, testRate)
	buf := make([][2]float64, int(testRate)/10)
	s.Stream(buf)
	last := buf[len(buf)-1][0]
	if last >= 1.0 || last <= 0 {
		t.Errorf("expected gain reduction on a full-scale signal, got %v", last)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want string
	}{
		{"empty", Settings{}, ""},
		{"numeric order", Settings{"1000": 2, "60": -1.5}, "60Hz:-1.5 1000Hz:+2.0"},
		{"not lexical", Settings{"16000": 0, "3000": 1, "350": -2, "12000": 4}, "350Hz:-2.0 3000Hz:+1.0 12000Hz:+4.0 16000Hz:+0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.in); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}
