// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Audio    AudioConfig     `yaml:"audio"`
	Playback PlaybackConfig  `yaml:"playback"`
	Channels []ChannelConfig `yaml:"channels" validate:"required,min=1,dive"`
	Visual   VisualConfig    `yaml:"visual"`
	Bindings []BindingConfig `yaml:"bindings" validate:"dive"`
	Messages MessagesConfig  `yaml:"messages"`
}

// AudioConfig represents audio output configuration.
type AudioConfig struct {
	SampleRate     int `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs       int `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	FetchTimeoutMs int `yaml:"fetch_timeout_ms" default:"10000" validate:"gte=0,lte=120000"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	PreloadDelayMs int `yaml:"preload_delay_ms" default:"1000" validate:"gte=0,lte=60000"`
	EventBuffer    int `yaml:"event_buffer" default:"16" validate:"gte=1,lte=1024"`
}

// ChannelConfig represents one audio channel.
type ChannelConfig struct {
	ID     string   `yaml:"id" validate:"required"`
	Source string   `yaml:"source" validate:"required"`
	Volume *float64 `yaml:"volume" default:"1" validate:"omitempty,gte=0,lte=1"`
	Loop   *bool    `yaml:"loop" default:"true"`
}

// VisualConfig represents indicator configuration.
type VisualConfig struct {
	ActiveColor   string                `yaml:"active_color" default:"#fa5004" validate:"hexcolor"`
	InactiveColor string                `yaml:"inactive_color" default:"#ffffff" validate:"hexcolor"`
	Elements      []string              `yaml:"elements" validate:"dive,required"`
	Bindings      []VisualBindingConfig `yaml:"bindings" validate:"dive"`
}

// VisualBindingConfig binds a channel to indicator elements using a layout.
type VisualBindingConfig struct {
	Channel  string         `yaml:"channel" validate:"required"`
	Layout   string         `yaml:"layout" default:"single" validate:"oneof=single paired"`
	Settings map[string]any `yaml:"settings" validate:"required"`
}

// BindingConfig binds a clickable element to a playback action.
type BindingConfig struct {
	Element string `yaml:"element" validate:"required"`
	Action  string `yaml:"action" validate:"oneof=play pause toggle"`
	Channel string `yaml:"channel" validate:"required"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	PlayFailed     string `yaml:"play_failed" default:"Playback failed. Check the connection."`
	UnknownCommand string `yaml:"unknown_command" default:"Unknown command. Type 'help' for the list of commands."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses, defaults and validates configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
// LOOPBOX_<CHANNEL>_SOURCE replaces the source of the channel with that ID.
func (c *Config) overrideFromEnv() {
	for i := range c.Channels {
		key := "LOOPBOX_" + envKey(c.Channels[i].ID) + "_SOURCE"
		if v := os.Getenv(key); v != "" {
			c.Channels[i].Source = v
		}
	}
	if v := os.Getenv("LOOPBOX_ACTIVE_COLOR"); v != "" {
		c.Visual.ActiveColor = v
	}
	if v := os.Getenv("LOOPBOX_INACTIVE_COLOR"); v != "" {
		c.Visual.InactiveColor = v
	}
}

func envKey(id string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(id))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateReferences(); err != nil {
		return err
	}

	return nil
}

// validateReferences checks that channel IDs are unique and every binding
// refers to a configured channel.
func (c *Config) validateReferences() error {
	ids := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if ids[ch.ID] {
			return errors.Newf("duplicate channel id: %s", ch.ID)
		}
		ids[ch.ID] = true
	}

	for _, b := range c.Visual.Bindings {
		if !ids[b.Channel] {
			return errors.Newf("visual binding refers to unknown channel: %s", b.Channel)
		}
	}

	elements := make(map[string]bool, len(c.Bindings))
	for _, b := range c.Bindings {
		if !ids[b.Channel] {
			return errors.Newf("binding %s refers to unknown channel: %s", b.Element, b.Channel)
		}
		if elements[b.Element] {
			return errors.Newf("element bound twice: %s", b.Element)
		}
		elements[b.Element] = true
	}

	return nil
}

// ChannelIDs returns the configured channel IDs in order.
func (c *Config) ChannelIDs() []string {
	ids := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		ids = append(ids, ch.ID)
	}
	return ids
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "play_failed":
		return c.Messages.PlayFailed
	case "unknown_command":
		return c.Messages.UnknownCommand
	default:
		return ""
	}
}
