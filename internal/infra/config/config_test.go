package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
channels:
  - id: track
    source: ./3-campione.mp3
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 100, cfg.Audio.BufferMs)
	assert.Equal(t, 10000, cfg.Audio.FetchTimeoutMs)
	assert.Equal(t, 1000, cfg.Playback.PreloadDelayMs)
	assert.Equal(t, 16, cfg.Playback.EventBuffer)
	assert.Equal(t, "#fa5004", cfg.Visual.ActiveColor)
	assert.Equal(t, "#ffffff", cfg.Visual.InactiveColor)
	assert.Equal(t, "Playback failed. Check the connection.", cfg.Messages.PlayFailed)

	require.Len(t, cfg.Channels, 1)
	ch := cfg.Channels[0]
	require.NotNil(t, ch.Volume)
	assert.Equal(t, 1.0, *ch.Volume)
	require.NotNil(t, ch.Loop)
	assert.True(t, *ch.Loop)
}

func TestParse_ExplicitZeroValuesKept(t *testing.T) {
	cfg, err := Parse([]byte(`
channels:
  - id: beat
    source: ./3-beat.mp3
    volume: 0
    loop: false
`))
	require.NoError(t, err)

	ch := cfg.Channels[0]
	assert.Equal(t, 0.0, *ch.Volume)
	assert.False(t, *ch.Loop)
}

func TestParse_VisualBindingDefaultLayout(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
visual:
  elements: [BASE1]
  bindings:
    - channel: track
      settings: {element: BASE1}
`))
	require.NoError(t, err)

	require.Len(t, cfg.Visual.Bindings, 1)
	assert.Equal(t, "single", cfg.Visual.Bindings[0].Layout)
	assert.Equal(t, "BASE1", cfg.Visual.Bindings[0].Settings["element"])
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("LOOPBOX_TRACK_SOURCE", "https://example.com/3-campione.mp3")
	t.Setenv("LOOPBOX_ACTIVE_COLOR", "#00ff00")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/3-campione.mp3", cfg.Channels[0].Source)
	assert.Equal(t, "#00ff00", cfg.Visual.ActiveColor)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "no channels",
			yaml:   `audio: {sample_rate: 44100}`,
			errMsg: "Channels",
		},
		{
			name: "missing source",
			yaml: `
channels:
  - id: track
`,
			errMsg: "Source",
		},
		{
			name: "volume out of range",
			yaml: `
channels:
  - id: track
    source: ./3-campione.mp3
    volume: 1.5
`,
			errMsg: "Volume",
		},
		{
			name: "duplicate channel",
			yaml: `
channels:
  - {id: track, source: ./a.mp3}
  - {id: track, source: ./b.mp3}
`,
			errMsg: "duplicate channel id",
		},
		{
			name: "bad color",
			yaml: minimalYAML + `
visual:
  active_color: orange
`,
			errMsg: "ActiveColor",
		},
		{
			name: "unknown layout",
			yaml: minimalYAML + `
visual:
  bindings:
    - {channel: track, layout: grid, settings: {element: BASE1}}
`,
			errMsg: "Layout",
		},
		{
			name: "visual binding to unknown channel",
			yaml: minimalYAML + `
visual:
  bindings:
    - {channel: beat, settings: {element: BASE2}}
`,
			errMsg: "unknown channel: beat",
		},
		{
			name: "click binding with unknown action",
			yaml: minimalYAML + `
bindings:
  - {element: gruppo-1, action: stop, channel: track}
`,
			errMsg: "Action",
		},
		{
			name: "click binding to unknown channel",
			yaml: minimalYAML + `
bindings:
  - {element: gruppo-1, action: play, channel: sample}
`,
			errMsg: "unknown channel: sample",
		},
		{
			name: "element bound twice",
			yaml: minimalYAML + `
bindings:
  - {element: gruppo-1, action: play, channel: track}
  - {element: gruppo-1, action: pause, channel: track}
`,
			errMsg: "element bound twice",
		},
		{
			name:   "malformed yaml",
			yaml:   "channels: [",
			errMsg: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"track"}, cfg.ChannelIDs())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_ShippedConfigs(t *testing.T) {
	for _, name := range []string{"console.yaml", "single.yaml"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join("..", "..", "..", "config", name))
			require.NoError(t, err)
		})
	}
}

func TestConfig_GetMessage(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
messages:
  play_failed: "Errore nella riproduzione dell'audio."
`))
	require.NoError(t, err)

	assert.Equal(t, "Errore nella riproduzione dell'audio.", cfg.GetMessage("play_failed"))
	assert.NotEmpty(t, cfg.GetMessage("unknown_command"))
	assert.Empty(t, cfg.GetMessage("nope"))
}
