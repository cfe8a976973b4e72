// Package config provides centralized configuration for SaveGame.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

const (
	DefaultWorkDir         = "."
	DefaultAutoSaveEnabled = true
	DefaultMaxSaveSlots    = 6
	DefaultAuthorName      = "SaveGame"
	DefaultAuthorEmail     = "savegame@localhost"
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultWatchDebounce   = 500 * time.Millisecond
)

// DefaultWatchIgnore lists directory names the auto-save watcher never enters.
var DefaultWatchIgnore = []string{".git"}

// Config is the top-level configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// WorkDir is the working directory being checkpointed.
	WorkDir         string       `mapstructure:"work_dir"`
	AutoSaveEnabled bool         `mapstructure:"auto_save_enabled"`
	MaxSaveSlots    int          `mapstructure:"max_save_slots"`
	Author          AuthorConfig `mapstructure:"author"`
	Server          ServerConfig `mapstructure:"server"`
	Watch           WatchConfig  `mapstructure:"watch"`
}

// AuthorConfig is the signature put on checkpoint commits.
type AuthorConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// WatchConfig holds auto-save watcher settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Ignore   []string      `mapstructure:"ignore"`
}

var (
	errEmptyWorkDir     = errors.New("work_dir must not be empty")
	errMaxSaveSlots     = fmt.Errorf("max_save_slots must be between 1 and %d", checkpoint.MaxCapacity)
	errNegativeDebounce = errors.New("watch.debounce must not be negative")
)

// Validate checks the configuration for values the rest of the program cannot handle.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return errEmptyWorkDir
	}
	if c.MaxSaveSlots < 1 || c.MaxSaveSlots > checkpoint.MaxCapacity {
		return errMaxSaveSlots
	}
	if c.Watch.Debounce < 0 {
		return errNegativeDebounce
	}
	return nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		WorkDir:         DefaultWorkDir,
		AutoSaveEnabled: DefaultAutoSaveEnabled,
		MaxSaveSlots:    DefaultMaxSaveSlots,
		Author:          AuthorConfig{Name: DefaultAuthorName, Email: DefaultAuthorEmail},
		Server:          ServerConfig{Addr: DefaultServerAddr},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
			Ignore:   append([]string(nil), DefaultWatchIgnore...),
		},
	}
}
