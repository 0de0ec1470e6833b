package equalizer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common/config"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/afero"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.StorePath = "/data/store.json"
	a, err := app.Open(afero.NewMemMapFs(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"60", 60, false},
		{"1000", 1000, false},
		{"1k", 1000, false},
		{"3kHz", 3000, false},
		{" 16K ", 16000, false},
		{"170hz", 170, false},
		{"61", 0, true},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrequency(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrequency(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFrequency(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := map[int]string{60: "60 Hz", 1000: "1 kHz", 14000: "14 kHz"}
	for in, want := range tests {
		if got := FormatFrequency(in); got != want {
			t.Errorf("FormatFrequency(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestSet_ClampsAndPersists(t *testing.T) {
	a := newApp(t)
	var out bytes.Buffer
	if err := RunSet(a, &SetParams{Band: "1k", Gain: 20}, &out); err != nil {
		t.Fatal(err)
	}
	s, ok := a.Session.Equalizer()
	if !ok || s["1000"] != eq.MaxGainDB || s["60"] != 0 {
		t.Errorf("stored = %v, %v", s, ok)
	}
	if !strings.Contains(out.String(), "+12.0 dB") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPresetAndReset(t *testing.T) {
	a := newApp(t)
	var out bytes.Buffer
	if err := RunPreset(a, "Rock", &out); err != nil {
		t.Fatal(err)
	}
	s, _ := a.Session.Equalizer()
	if got := eq.MatchPreset(s); got != "rock" {
		t.Errorf("preset = %q", got)
	}

	out.Reset()
	RunShow(a, &out)
	if !strings.Contains(out.String(), "Preset: rock") {
		t.Errorf("show output = %q", out.String())
	}

	if err := RunPreset(a, "flat", &out); err != nil {
		t.Fatal(err)
	}
	s, _ = a.Session.Equalizer()
	if got := eq.MatchPreset(s); got != "flat" {
		t.Errorf("after reset preset = %q", got)
	}

	if err := RunPreset(a, "dubstep", &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("unknown preset err = %v", err)
	}
}

func TestSafeMode_BlocksChanges(t *testing.T) {
	a := newApp(t)
	a.Session.SetSafeMode(true)
	var out bytes.Buffer
	if err := RunSet(a, &SetParams{Band: "60", Gain: 3}, &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("set err = %v", err)
	}
	if err := RunPreset(a, "pop", &out); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("preset err = %v", err)
	}
	if err := RunShow(a, &out); err != nil {
		t.Errorf("show should stay available: %v", err)
	}
}
