// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Profile  ProfileConfig  `toml:"profile"`
	Logging  LoggingConfig  `toml:"logging"`
	Layouts  LayoutsConfig  `toml:"layouts"`
}

// PracticeConfig maps practice-related settings. Nil fields are unset.
type PracticeConfig struct {
	Lang           *string   `toml:"lang"`
	HostLayout     *string   `toml:"host-layout"`
	Mode           *string   `toml:"mode"`
	Termination    *string   `toml:"termination"`
	Duration       *Duration `toml:"duration"`
	Words          *int      `toml:"words"`
	Difficulty     *string   `toml:"difficulty"`
	TextType       *string   `toml:"text-type"`
	Commitment     *string   `toml:"commitment"`
	SampleInterval *Duration `toml:"sample-interval"`
	FocusWeak      *bool     `toml:"focus-weak"`
	WeakTop        *int      `toml:"weak-top"`
	WeakFactor     *float64  `toml:"weak-factor"`
	WeakWindow     *int      `toml:"weak-window"`
}

// ProfileConfig names the user stored with each result.
type ProfileConfig struct {
	User *string `toml:"user"`
}

// LoggingConfig selects the log level and file.
type LoggingConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LayoutsConfig points at a directory of user layout definitions.
type LayoutsConfig struct {
	Dir *string `toml:"dir"`
}

// Duration decodes TOML strings such as "60s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
// Unknown keys are rejected so typos do not pass silently.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
