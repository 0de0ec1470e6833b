// Package config loads crossfader's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/engine/media"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Config is the ~/.crossfader/config.toml structure. Sections left out of
// the file are filled from DefaultConfig.
type Config struct {
	// StorePath is the key-value store file. Empty means ~/.crossfader/store.json.
	StorePath     string              `toml:"store_path,omitempty"`
	Log           *LogConfig          `toml:"log,omitempty"`
	Audio         *AudioConfig        `toml:"audio,omitempty"`
	Player        *PlayerConfig       `toml:"player,omitempty"`
	Notifications *NotificationConfig `toml:"notifications,omitempty"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AudioConfig struct {
	SampleRate   int `toml:"sample_rate"`
	BufferMillis int `toml:"buffer_ms"`
}

type PlayerConfig struct {
	TickMillis int `toml:"tick_ms"`
	// LockPlaylistWhilePlaying refuses playlist switches until paused.
	LockPlaylistWhilePlaying bool `toml:"lock_playlist_while_playing"`
	// ShuffleSeed makes shuffle order reproducible. 0 seeds from the clock.
	ShuffleSeed   uint64 `toml:"shuffle_seed"`
	MetadataCache int    `toml:"metadata_cache"`
	WatchLibrary  bool   `toml:"watch_library"`
}

// NotificationConfig holds settings for desktop notifications on track change.
type NotificationConfig struct {
	Enabled         bool `toml:"enabled"`
	CooldownSeconds int  `toml:"cooldown_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: &LogConfig{
			Level: "info",
		},
		Audio: &AudioConfig{
			SampleRate:   44100,
			BufferMillis: 100,
		},
		Player: &PlayerConfig{
			TickMillis:    250,
			MetadataCache: 512,
			WatchLibrary:  true,
		},
		Notifications: &NotificationConfig{
			Enabled:         false,
			CooldownSeconds: 5,
		},
	}
}

// Load reads the config from ~/.crossfader/config.toml.
func Load() (*Config, error) {
	return LoadFrom(afero.NewOsFs(), common.ConfigPath())
}

// LoadFrom returns the default config if path doesn't exist.
func LoadFrom(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Log == nil {
		c.Log = def.Log
	} else if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Audio == nil {
		c.Audio = def.Audio
	} else {
		if c.Audio.SampleRate <= 0 {
			c.Audio.SampleRate = def.Audio.SampleRate
		}
		if c.Audio.BufferMillis <= 0 {
			c.Audio.BufferMillis = def.Audio.BufferMillis
		}
	}
	if c.Player == nil {
		c.Player = def.Player
	} else {
		if c.Player.TickMillis <= 0 {
			c.Player.TickMillis = def.Player.TickMillis
		}
		if c.Player.MetadataCache <= 0 {
			c.Player.MetadataCache = def.Player.MetadataCache
		}
	}
	if c.Notifications == nil {
		c.Notifications = def.Notifications
	} else if c.Notifications.CooldownSeconds <= 0 {
		c.Notifications.CooldownSeconds = def.Notifications.CooldownSeconds
	}
}

// Save writes the config to ~/.crossfader/config.toml.
func Save(cfg *Config) error {
	return SaveTo(afero.NewOsFs(), common.ConfigPath(), cfg)
}

func SaveTo(fs afero.Fs, path string, cfg *Config) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}

// ResolvedStorePath expands a leading ~ and falls back to the default location.
func (c *Config) ResolvedStorePath() string {
	p := strings.TrimSpace(c.StorePath)
	if p == "" {
		return common.DefaultStorePath()
	}
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) AudioOptions() media.Options {
	return media.Options{
		SampleRate: c.Audio.SampleRate,
		Buffer:     time.Duration(c.Audio.BufferMillis) * time.Millisecond,
	}
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Player.TickMillis) * time.Millisecond
}

func (c *NotificationConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}
