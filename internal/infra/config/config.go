// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/osa030/moodify/internal/domain/mood"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Moods    []MoodConfig   `yaml:"moods" validate:"min=1,dive"`
	Messages MessagesConfig `yaml:"messages"`
}

// ServerConfig represents web server configuration.
type ServerConfig struct {
	Addr          string        `yaml:"addr" default:":8080"`
	SessionCookie string        `yaml:"session_cookie" default:"moodify_session" validate:"required"`
	SessionTTL    time.Duration `yaml:"session_ttl" default:"24h" validate:"gt=0"`
	Hooks         HooksConfig   `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// BackendConfig represents the external playlist service.
type BackendConfig struct {
	BaseURL      string        `yaml:"base_url" default:"http://localhost:5000" validate:"required,url"`
	PlaylistPath string        `yaml:"playlist_path" default:"/playlist" validate:"required,startswith=/"`
	CallbackPath string        `yaml:"callback_path" default:"/callback" validate:"required,startswith=/"`
	Timeout      time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// FetchConfig represents playlist fetch behavior.
type FetchConfig struct {
	Ordering string `yaml:"ordering" default:"last_dispatched" validate:"oneof=last_dispatched last_resolved"`
}

// MoodConfig represents a single selectable mood.
type MoodConfig struct {
	Name     string         `yaml:"name" validate:"required,lowercase"`
	Settings map[string]any `yaml:"settings"`
}

// MoodSettings holds optional display settings for a mood button.
type MoodSettings struct {
	Label string `yaml:"label" mapstructure:"label" validate:"max=32"`
	Emoji string `yaml:"emoji" mapstructure:"emoji" validate:"max=8"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Title      string `yaml:"title" default:"Moodify😉🎧 — Playlist Generator"`
	Loading    string `yaml:"loading" default:"Loading your vibe playlist..."`
	FetchError string `yaml:"fetch_error" default:"Failed to fetch playlist. Make sure you are logged in via Spotify."`
	NoPreview  string `yaml:"no_preview" default:"No preview available"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return finish(&cfg)
}

// Default returns a configuration built from defaults and environment variables only.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	cfg.overrideFromEnv()

	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// SetDefaults fills in the built-in mood set when none is configured.
// Called by creasty/defaults after field defaults are applied.
func (c *Config) SetDefaults() {
	if len(c.Moods) > 0 {
		return
	}
	for _, m := range mood.Defaults() {
		c.Moods = append(c.Moods, MoodConfig{Name: m.String()})
	}
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("MOODIFY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MOODIFY_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("MOODIFY_ORDERING"); v != "" {
		c.Fetch.Ordering = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]bool, len(c.Moods))
	for i, m := range c.Moods {
		if seen[m.Name] {
			return errors.Newf("duplicate mood %q (index %d)", m.Name, i)
		}
		seen[m.Name] = true
	}

	if _, err := c.MoodSet(); err != nil {
		return err
	}

	return nil
}

// MoodSet builds the static mood set, decoding each mood's settings.
func (c *Config) MoodSet() (*mood.Set, error) {
	validate := validator.New()
	options := make([]mood.Option, 0, len(c.Moods))

	for i, mc := range c.Moods {
		var settings MoodSettings
		if err := mapstructure.Decode(mc.Settings, &settings); err != nil {
			return nil, errors.Wrapf(err, "failed to decode settings for mood %q (index %d)", mc.Name, i)
		}
		if err := defaults.Set(&settings); err != nil {
			return nil, errors.Wrap(err, "failed to set mood defaults")
		}
		if err := validate.Struct(settings); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for mood %q", mc.Name)
		}

		options = append(options, mood.Option{
			Mood:  mood.Mood(mc.Name),
			Label: settings.Label,
			Emoji: settings.Emoji,
		})
	}

	return mood.NewSet(options), nil
}

// CallbackURL returns the absolute URL of the re-authentication entry point.
func (c *Config) CallbackURL() string {
	return joinURL(c.Backend.BaseURL, c.Backend.CallbackPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
