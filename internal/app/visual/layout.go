package visual

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Layout names.
const (
	LayoutSingle = "single" // One element per channel
	LayoutPaired = "paired" // One element per state
)

// SingleLayoutConfig binds one element to a channel.
type SingleLayoutConfig struct {
	Element string `yaml:"element" mapstructure:"element" validate:"required"`
}

// PairedLayoutConfig binds a play-state and a pause-state element group to a channel.
type PairedLayoutConfig struct {
	Active   []string `yaml:"active" mapstructure:"active" validate:"required,min=1,dive,required"`
	Inactive []string `yaml:"inactive" mapstructure:"inactive" validate:"dive,required"`
}

// NewBinding builds a binding for a channel from a layout name and its settings.
func NewBinding(channelID, layout string, settings map[string]any) (Binding, error) {
	if channelID == "" {
		return Binding{}, errors.New("binding channel is required")
	}

	switch layout {
	case LayoutSingle, "":
		var config SingleLayoutConfig
		if err := decodeSettings(settings, &config); err != nil {
			return Binding{}, errors.Wrapf(err, "channel %s: single layout", channelID)
		}
		return Binding{Channel: channelID, Active: []string{config.Element}}, nil

	case LayoutPaired:
		var config PairedLayoutConfig
		if err := decodeSettings(settings, &config); err != nil {
			return Binding{}, errors.Wrapf(err, "channel %s: paired layout", channelID)
		}
		return Binding{Channel: channelID, Active: config.Active, Inactive: config.Inactive}, nil

	default:
		return Binding{}, errors.Newf("unsupported layout: %s (channel %s)", layout, channelID)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("visual: layout config: %+v", out)
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
