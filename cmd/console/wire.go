package main

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/osa030/loopbox/internal/app/binding"
	"github.com/osa030/loopbox/internal/app/console"
	"github.com/osa030/loopbox/internal/app/notification"
	"github.com/osa030/loopbox/internal/app/playback"
	"github.com/osa030/loopbox/internal/app/visual"
	"github.com/osa030/loopbox/internal/domain/channel"
	"github.com/osa030/loopbox/internal/infra/config"
	"github.com/osa030/loopbox/internal/infra/panel"
)

// session is the wired component graph of one console run.
type session struct {
	controller *playback.Controller
	board      *panel.Board
	router     *binding.Router
	notifier   *notification.Manager
	dispatcher *console.Dispatcher
}

// build wires config into controller, visuals, click bindings and console.
func build(cfg *config.Config, out io.Writer, factory playback.HandleFactory) (*session, error) {
	palette := visual.Palette{Active: cfg.Visual.ActiveColor, Inactive: cfg.Visual.InactiveColor}

	bindings, err := visualBindings(cfg)
	if err != nil {
		return nil, err
	}

	board := panel.NewBoard(palette.Inactive, boardElements(cfg, bindings)...)
	sync := visual.NewSync(board, palette, bindings)

	controller, err := playback.NewController(playback.Config{
		Channels:    channels(cfg),
		NewHandle:   factory,
		Refresher:   sync,
		EventBuffer: cfg.Playback.EventBuffer,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playback controller")
	}

	router, err := binding.NewRouter(controller, clickBindings(cfg))
	if err != nil {
		controller.Close()
		return nil, errors.Wrap(err, "failed to create click bindings")
	}

	dispatcher := console.NewDispatcher(controller, router, board, console.Messages{
		PlayFailed:     cfg.GetMessage("play_failed"),
		UnknownCommand: cfg.GetMessage("unknown_command"),
	}, out)

	notifier := notification.NewManager()
	notifier.Subscribe(dispatcher.Watcher(),
		playback.EventPlayFailed, playback.EventError, playback.EventPlayStarted, playback.EventEnded)

	return &session{
		controller: controller,
		board:      board,
		router:     router,
		notifier:   notifier,
		dispatcher: dispatcher,
	}, nil
}

// Close releases the controller and drops subscribers.
func (s *session) Close() {
	s.controller.Close()
	s.notifier.Close()
}

func channels(cfg *config.Config) []channel.Channel {
	result := make([]channel.Channel, 0, len(cfg.Channels))
	for _, c := range cfg.Channels {
		ch := channel.Channel{
			ID:     c.ID,
			Source: c.Source,
			Volume: channel.MaxVolume,
			Loop:   true,
		}
		if c.Volume != nil {
			ch.Volume = *c.Volume
		}
		if c.Loop != nil {
			ch.Loop = *c.Loop
		}
		result = append(result, ch)
	}
	return result
}

func visualBindings(cfg *config.Config) ([]visual.Binding, error) {
	result := make([]visual.Binding, 0, len(cfg.Visual.Bindings))
	for i, b := range cfg.Visual.Bindings {
		vb, err := visual.NewBinding(b.Channel, b.Layout, b.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "visual binding %d", i)
		}
		result = append(result, vb)
	}
	return result, nil
}

// boardElements returns the declared elements, or every element named by a
// binding when none are declared.
func boardElements(cfg *config.Config, bindings []visual.Binding) []string {
	if len(cfg.Visual.Elements) > 0 {
		return cfg.Visual.Elements
	}
	var ids []string
	for _, b := range bindings {
		ids = append(ids, b.Active...)
		ids = append(ids, b.Inactive...)
	}
	return ids
}

func clickBindings(cfg *config.Config) []binding.Binding {
	result := make([]binding.Binding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		result = append(result, binding.Binding{
			Element: b.Element,
			Action:  binding.Action(b.Action),
			Channel: b.Channel,
		})
	}
	return result
}
