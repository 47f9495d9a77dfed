package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	calls []string
}

func (p *recordingPlayer) Play(id string) error {
	p.calls = append(p.calls, "play "+id)
	return nil
}

func (p *recordingPlayer) Pause(id string) error {
	p.calls = append(p.calls, "pause "+id)
	return nil
}

func (p *recordingPlayer) Toggle(id string) error {
	p.calls = append(p.calls, "toggle "+id)
	return nil
}

func TestRouter_Click(t *testing.T) {
	p := &recordingPlayer{}
	r, err := NewRouter(p, []Binding{
		{Element: "gruppo-1", Action: ActionPlay, Channel: "track"},
		{Element: "gruppo-2", Action: ActionPause, Channel: "track"},
		{Element: "BASE2", Action: ActionToggle, Channel: "beat"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Click("gruppo-1"))
	require.NoError(t, r.Click("gruppo-2"))
	require.NoError(t, r.Click("BASE2"))

	assert.Equal(t, []string{"play track", "pause track", "toggle beat"}, p.calls)
	assert.Equal(t, []string{"BASE2", "gruppo-1", "gruppo-2"}, r.Elements())
}

func TestRouter_ClickUnbound(t *testing.T) {
	p := &recordingPlayer{}
	r, err := NewRouter(p, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Click("gruppo-9"), ErrUnboundElement)
	assert.Empty(t, p.calls)
}

func TestNewRouter_Validation(t *testing.T) {
	tests := []struct {
		name     string
		bindings []Binding
	}{
		{name: "missing element", bindings: []Binding{{Action: ActionPlay, Channel: "track"}}},
		{name: "missing channel", bindings: []Binding{{Element: "gruppo-1", Action: ActionPlay}}},
		{name: "unknown action", bindings: []Binding{{Element: "gruppo-1", Action: "stop", Channel: "track"}}},
		{
			name: "duplicate element",
			bindings: []Binding{
				{Element: "gruppo-1", Action: ActionPlay, Channel: "track"},
				{Element: "gruppo-1", Action: ActionPause, Channel: "track"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter(&recordingPlayer{}, tt.bindings)
			assert.Error(t, err)
		})
	}
}
