// Package console interprets console command lines as clicks and playback calls.
package console

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/loopbox/internal/app/playback"
)

// Errors
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Player is the playback surface the console drives.
type Player interface {
	Play(id string) error
	Pause(id string) error
	Toggle(id string) error
	SetVolume(id string, level float64) (bool, error)
	Volume(id string) float64
	GetState(id string) (playback.State, error)
	CurrentTime(id string) time.Duration
	Duration(id string) time.Duration
	Channels() []string
}

// Clicker dispatches element clicks.
type Clicker interface {
	Click(element string) error
	Elements() []string
}

// Renderer draws the indicator panel.
type Renderer interface {
	Render() string
}

// Messages holds user-facing texts.
type Messages struct {
	PlayFailed     string
	UnknownCommand string
}

type command struct {
	usage string
	help  string
	args  int // required argument count
	run   func(d *Dispatcher, args []string) error
}

func newCommands() map[string]command {
	return map[string]command{
		"click":  {usage: "click <element>", help: "click an indicator element", args: 1, run: (*Dispatcher).click},
		"play":   {usage: "play <channel>", help: "start a channel", args: 1, run: (*Dispatcher).play},
		"pause":  {usage: "pause <channel>", help: "pause a channel", args: 1, run: (*Dispatcher).pause},
		"toggle": {usage: "toggle <channel>", help: "play or pause a channel", args: 1, run: (*Dispatcher).toggle},
		"volume": {usage: "volume <channel> <0..1>", help: "set channel volume", args: 2, run: (*Dispatcher).volume},
		"status": {usage: "status", help: "show channel states", run: (*Dispatcher).status},
		"time":   {usage: "time <channel>", help: "show position and duration", args: 1, run: (*Dispatcher).time},
		"panel":  {usage: "panel", help: "draw the indicator panel", run: (*Dispatcher).panel},
		"help":   {usage: "help", help: "show this help", run: (*Dispatcher).help},
	}
}

// Dispatcher executes console command lines.
type Dispatcher struct {
	player   Player
	clicker  Clicker
	board    Renderer
	messages Messages
	commands map[string]command

	mu  sync.Mutex
	out io.Writer
}

// NewDispatcher creates a dispatcher writing to out.
func NewDispatcher(player Player, clicker Clicker, board Renderer, messages Messages, out io.Writer) *Dispatcher {
	return &Dispatcher{
		player:   player,
		clicker:  clicker,
		board:    board,
		messages: messages,
		commands: newCommands(),
		out:      out,
	}
}

// Execute runs one command line. It reports true when the console should exit.
func (d *Dispatcher) Execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "quit" || name == "exit" {
		return true, nil
	}

	cmd, ok := d.commands[name]
	if !ok {
		d.println(d.messages.UnknownCommand)
		return false, errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	if len(args) < cmd.args {
		return false, errors.Wrapf(ErrUsage, "%s", cmd.usage)
	}

	return false, cmd.run(d, args)
}

// Commands returns the command names in sorted order, including quit.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands)+1)
	for name := range d.commands {
		names = append(names, name)
	}
	names = append(names, "quit")
	sort.Strings(names)
	return names
}

// Println writes a line to the console output.
func (d *Dispatcher) Println(s string) {
	d.println(s)
}

func (d *Dispatcher) click(args []string) error {
	if d.clicker == nil {
		return errors.Wrap(ErrUnknownCommand, "no click bindings")
	}
	if err := d.clicker.Click(args[0]); err != nil {
		return err
	}
	d.drawPanel()
	return nil
}

func (d *Dispatcher) play(args []string) error {
	return d.player.Play(args[0])
}

func (d *Dispatcher) pause(args []string) error {
	if err := d.player.Pause(args[0]); err != nil {
		return err
	}
	d.drawPanel()
	return nil
}

func (d *Dispatcher) toggle(args []string) error {
	if err := d.player.Toggle(args[0]); err != nil {
		return err
	}
	d.drawPanel()
	return nil
}

func (d *Dispatcher) volume(args []string) error {
	level, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Wrapf(ErrUsage, "volume must be a number: %q", args[1])
	}

	applied, err := d.player.SetVolume(args[0], level)
	if err != nil {
		return err
	}
	if !applied {
		d.printf("%s: not loaded yet, volume ignored\n", args[0])
		return nil
	}
	d.printf("%s: volume %.0f%%\n", args[0], d.player.Volume(args[0])*100)
	return nil
}

func (d *Dispatcher) status(_ []string) error {
	for _, id := range d.player.Channels() {
		state, err := d.player.GetState(id)
		if err != nil {
			return err
		}
		d.printf("%-10s %-8s volume %3.0f%%\n", id, state, d.player.Volume(id)*100)
	}
	return nil
}

func (d *Dispatcher) time(args []string) error {
	if _, err := d.player.GetState(args[0]); err != nil {
		return err
	}
	pos := d.player.CurrentTime(args[0]).Truncate(100 * time.Millisecond)
	total := d.player.Duration(args[0]).Truncate(100 * time.Millisecond)
	d.printf("%s: %v / %v\n", args[0], pos, total)
	return nil
}

func (d *Dispatcher) panel(_ []string) error {
	d.drawPanel()
	return nil
}

func (d *Dispatcher) help(_ []string) error {
	names := d.Commands()
	for _, name := range names {
		if name == "quit" {
			d.printf("  %-26s %s\n", "quit", "leave the console")
			continue
		}
		cmd := d.commands[name]
		d.printf("  %-26s %s\n", cmd.usage, cmd.help)
	}
	if d.clicker != nil {
		d.printf("elements: %s\n", strings.Join(d.clicker.Elements(), ", "))
	}
	d.printf("channels: %s\n", strings.Join(d.player.Channels(), ", "))
	return nil
}

func (d *Dispatcher) drawPanel() {
	if d.board == nil {
		return
	}
	d.println(d.board.Render())
}

func (d *Dispatcher) println(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, s)
}

func (d *Dispatcher) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
}
