// Package binding routes element clicks to playback actions.
package binding

import (
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrUnboundElement is returned when a clicked element has no binding.
var ErrUnboundElement = errors.New("element has no click binding")

// Action is what a click does to its channel.
type Action string

const (
	ActionPlay   Action = "play"
	ActionPause  Action = "pause"
	ActionToggle Action = "toggle"
)

// Player is the playback surface a click can drive.
type Player interface {
	Play(id string) error
	Pause(id string) error
	Toggle(id string) error
}

// Binding wires one element to an action on a channel.
type Binding struct {
	Element string
	Action  Action
	Channel string
}

// Router dispatches clicks to a Player.
type Router struct {
	player   Player
	bindings map[string]Binding
}

// NewRouter creates a router. Elements may be bound only once.
func NewRouter(player Player, bindings []Binding) (*Router, error) {
	m := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		if b.Element == "" || b.Channel == "" {
			return nil, errors.Newf("incomplete binding: element=%q channel=%q", b.Element, b.Channel)
		}
		switch b.Action {
		case ActionPlay, ActionPause, ActionToggle:
		default:
			return nil, errors.Newf("unsupported action %q on element %s", b.Action, b.Element)
		}
		if _, exists := m[b.Element]; exists {
			return nil, errors.Newf("element bound twice: %s", b.Element)
		}
		m[b.Element] = b
	}
	return &Router{player: player, bindings: m}, nil
}

// Click runs the action bound to element.
func (r *Router) Click(element string) error {
	b, ok := r.bindings[element]
	if !ok {
		return errors.Wrapf(ErrUnboundElement, "element %q", element)
	}

	zlog.Info().Msgf("binding: click: element=%s action=%s channel=%s", element, b.Action, b.Channel)

	switch b.Action {
	case ActionPlay:
		return r.player.Play(b.Channel)
	case ActionPause:
		return r.player.Pause(b.Channel)
	default:
		return r.player.Toggle(b.Channel)
	}
}

// Elements returns the bound element IDs in sorted order.
func (r *Router) Elements() []string {
	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
