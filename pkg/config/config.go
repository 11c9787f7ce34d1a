// Package config loads gemgutter settings from a TOML file with environment
// overrides.
//
// The file lives at $XDG_CONFIG_HOME/gemgutter/config.toml, falling back to
// ~/.config/gemgutter/config.toml. A missing file is not an error; every key
// has a default:
//
//	show_automatically = true
//	gutter_width = 14
//	filenames = ["Gemfile", "gemfile", "gems.rb"]
//	debounce = "300ms"
//
// Environment variables with the GEMGUTTER_ prefix override file values:
// GEMGUTTER_SHOW_AUTOMATICALLY, GEMGUTTER_GUTTER_WIDTH, GEMGUTTER_FILENAMES
// (comma separated) and GEMGUTTER_DEBOUNCE.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gemgutter/pkg/deps/ruby"
	"github.com/matzehuels/gemgutter/pkg/errors"
)

const (
	// AppName names the config directory.
	AppName = "gemgutter"

	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "GEMGUTTER"
)

// Defaults.
const (
	DefaultGutterWidth = 14
	DefaultDebounce    = 300 * time.Millisecond
)

// DefaultFilenames are the manifest names annotated automatically.
var DefaultFilenames = []string{"Gemfile", "gemfile", "gems.rb"}

// Duration is a time.Duration written as a string such as "300ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds user settings.
type Config struct {
	ShowAutomatically bool     `toml:"show_automatically"`
	GutterWidth       int      `toml:"gutter_width"`
	Filenames         []string `toml:"filenames"`
	Debounce          Duration `toml:"debounce"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ShowAutomatically: true,
		GutterWidth:       DefaultGutterWidth,
		Filenames:         append([]string(nil), DefaultFilenames...),
		Debounce:          Duration{DefaultDebounce},
	}
}

// DefaultPath returns the config file location using the XDG convention.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, FileName), nil
}

// Load reads the config at path, or at DefaultPath when path is empty,
// then applies environment overrides and validates the result. A missing
// file at the default location yields the defaults; a missing file given
// explicitly is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config file")
		}
		path = p
	}

	cfg := Default()
	switch _, err := os.Stat(path); {
	case err == nil:
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
		}
		cfg.Path = path
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "stat %s", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "_SHOW_AUTOMATICALLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s_SHOW_AUTOMATICALLY", EnvPrefix)
		}
		c.ShowAutomatically = b
	}
	if v := os.Getenv(EnvPrefix + "_GUTTER_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s_GUTTER_WIDTH", EnvPrefix)
		}
		c.GutterWidth = n
	}
	if v := os.Getenv(EnvPrefix + "_FILENAMES"); v != "" {
		c.Filenames = strings.Split(v, ",")
	}
	if v := os.Getenv(EnvPrefix + "_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s_DEBOUNCE", EnvPrefix)
		}
		c.Debounce = Duration{d}
	}
	return nil
}

// Validate checks that every setting is usable and normalizes filenames.
func (c *Config) Validate() error {
	if c.GutterWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "gutter_width must be positive, got %d", c.GutterWidth)
	}
	if c.Debounce.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "debounce must be positive, got %s", c.Debounce)
	}

	names := c.Filenames[:0]
	for _, name := range c.Filenames {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if err := errors.ValidateManifestFilename(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	c.Filenames = names
	if len(c.Filenames) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "filenames cannot be empty")
	}
	return nil
}

// Matches reports whether path ends with one of the configured filenames,
// or with one of them followed by the lock suffix.
func (c *Config) Matches(path string) bool {
	if path == "" {
		return false
	}
	for _, name := range c.Filenames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.HasSuffix(path, name) || strings.HasSuffix(path, name+ruby.LockSuffix) {
			return true
		}
	}
	return false
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
