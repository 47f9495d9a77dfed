// Package visual keeps indicator element colors in step with channel playback state.
package visual

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Default palette.
const (
	DefaultActiveColor   = "#fa5004"
	DefaultInactiveColor = "#ffffff"
)

// Element is a styleable indicator element.
type Element interface {
	SetFill(color string)
}

// Lookup finds an element by ID. Absent elements return false.
type Lookup interface {
	Lookup(id string) (Element, bool)
}

// Palette holds the fill colors for the two indicator states.
type Palette struct {
	Active   string
	Inactive string
}

// DefaultPalette returns the default palette.
func DefaultPalette() Palette {
	return Palette{Active: DefaultActiveColor, Inactive: DefaultInactiveColor}
}

// Binding maps a channel to the elements that show its state.
// While playing, Active elements take the active color and Inactive elements
// the inactive color; while not playing the colors swap.
type Binding struct {
	Channel  string
	Active   []string
	Inactive []string
}

// Sync applies channel state to indicator elements.
type Sync struct {
	mu       sync.Mutex
	lookup   Lookup
	palette  Palette
	bindings []Binding
}

// NewSync creates a new Sync. Empty palette colors fall back to the defaults.
func NewSync(lookup Lookup, palette Palette, bindings []Binding) *Sync {
	if palette.Active == "" {
		palette.Active = DefaultActiveColor
	}
	if palette.Inactive == "" {
		palette.Inactive = DefaultInactiveColor
	}
	return &Sync{
		lookup:   lookup,
		palette:  palette,
		bindings: bindings,
	}
}

// Refresh colors every bound element from the given playing flags.
// Channels missing from states are treated as not playing.
func (s *Sync) Refresh(states map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bindings {
		on, off := s.palette.Inactive, s.palette.Active
		if states[b.Channel] {
			on, off = s.palette.Active, s.palette.Inactive
		}
		s.fill(b.Active, on)
		s.fill(b.Inactive, off)
	}
}

// Palette returns the palette in use.
func (s *Sync) Palette() Palette {
	return s.palette
}

func (s *Sync) fill(ids []string, color string) {
	for _, id := range ids {
		el, ok := s.lookup.Lookup(id)
		if !ok || el == nil {
			zlog.Debug().Msgf("visual: element not found, skipping: id=%s", id)
			continue
		}
		el.SetFill(color)
	}
}
