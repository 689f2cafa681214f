package kilt

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the optional user settings loaded from kilt.toml.
type Config struct {
	// EscapeTimeoutMS is how long to wait for escape-sequence
	// continuation bytes, in milliseconds. Granularity is 100ms.
	EscapeTimeoutMS int `toml:"escape_timeout_ms"`

	// HideBanner suppresses the version banner on the empty screen.
	HideBanner bool `toml:"hide_banner"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{EscapeTimeoutMS: 100}
}

// ConfigPath returns the default config file path.
// Respects XDG_CONFIG_HOME if set, otherwise uses ~/.config/kilt.toml.
func ConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "kilt.toml")
}

// LoadConfig loads settings from the default path, falling back to
// defaults when no file exists.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(ConfigPath())
}

// LoadConfigFrom loads settings from a specific file. A missing file is
// fine; a file that fails to parse is not.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}
