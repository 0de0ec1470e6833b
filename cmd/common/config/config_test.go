package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(afero.NewMemMapFs(), "/cfg/config.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.TickInterval() != 250*time.Millisecond {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Audio, cfg.Player)
	}
	if cfg.Notifications.Enabled {
		t.Error("notifications should default to off")
	}
}

func TestLoadFrom_FillsMissingFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `
store_path = "/data/store.json"

[log]
level = "debug"

[player]
lock_playlist_while_playing = true
shuffle_seed = 42

[notifications]
enabled = true
`
	if err := afero.WriteFile(fs, "/cfg/config.toml", []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(fs, "/cfg/config.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ResolvedStorePath() != "/data/store.json" {
		t.Errorf("store path = %q", cfg.ResolvedStorePath())
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
	if !cfg.Player.LockPlaylistWhilePlaying || cfg.Player.ShuffleSeed != 42 {
		t.Errorf("player = %+v", cfg.Player)
	}
	if cfg.Player.TickMillis != 250 || cfg.Player.MetadataCache != 512 {
		t.Errorf("player defaults not filled: %+v", cfg.Player)
	}
	if cfg.Audio == nil || cfg.Audio.BufferMillis != 100 {
		t.Errorf("audio section not defaulted: %+v", cfg.Audio)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Cooldown() != 5*time.Second {
		t.Errorf("notifications = %+v", cfg.Notifications)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg/config.toml", []byte("[player\ntick_ms = "), 0644)
	if _, err := LoadFrom(fs, "/cfg/config.toml"); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.Player.ShuffleSeed = 7
	cfg.Notifications.Enabled = true
	if err := SaveTo(fs, "/new/dir/config.toml", cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(fs, "/new/dir/config.toml")
	if err != nil {
		t.Fatal(err)
	}
	if got.Player.ShuffleSeed != 7 || !got.Notifications.Enabled {
		t.Errorf("round trip lost fields: %+v %+v", got.Player, got.Notifications)
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := DefaultConfig()
		cfg.Log.Level = in
		if got := cfg.LogLevel(); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
