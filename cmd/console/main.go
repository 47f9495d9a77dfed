// Package main provides the interactive console entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loopbox/internal/infra/audio"
	"github.com/osa030/loopbox/internal/infra/config"
	"github.com/osa030/loopbox/internal/infra/logger"
)

var (
	app        = kingpin.New("loopbox-console", "loopbox looping audio console")
	configPath = app.Flag("config", "Path to config file").Default("config/console.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// channels command
	channelsCmd = app.Command("channels", "List configured channels and exit")
)

func init() {
	// run command (default)
	app.Command("run", "Start the interactive console (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Warnings only on the terminal so log lines do not bury the prompt
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "warn",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.Level = "info"
		if *verbose {
			loggerConfig.Level = "debug"
		}
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == channelsCmd.FullCommand() {
		printChannels(os.Stdout, cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Console error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the console loop. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "loopbox> ",
		AutoComplete:    completer(cfg),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return errors.Wrap(err, "failed to start readline")
	}
	defer rl.Close()

	output := audio.NewOutput(cfg.Audio.SampleRate, millis(cfg.Audio.BufferMs))
	loader := audio.NewLoader(millis(cfg.Audio.FetchTimeoutMs))

	s, err := build(cfg, rl.Stdout(), audio.Factory(output, loader))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go s.notifier.Pump(ctx, s.controller.Events())

	// Neutral indicator state before anything plays
	s.controller.Refresh()
	s.controller.PreloadAfter(ctx, millis(cfg.Playback.PreloadDelayMs))

	s.dispatcher.Println(s.board.Render())
	s.dispatcher.Println("type 'help' for commands")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					readErr <- io.EOF
					return
				}
				continue
			}
			if err != nil {
				readErr <- err
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("Received shutdown signal...")
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		case line := <-lines:
			quit, err := s.dispatcher.Execute(line)
			if err != nil {
				s.dispatcher.Println(fmt.Sprintf("error: %v", err))
			}
			if quit {
				return nil
			}
		}
	}
}

func completer(cfg *config.Config) *readline.PrefixCompleter {
	channelItems := func() []readline.PrefixCompleterInterface {
		items := make([]readline.PrefixCompleterInterface, 0, len(cfg.Channels))
		for _, id := range cfg.ChannelIDs() {
			items = append(items, readline.PcItem(id))
		}
		return items
	}
	elementItems := make([]readline.PrefixCompleterInterface, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		elementItems = append(elementItems, readline.PcItem(b.Element))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("click", elementItems...),
		readline.PcItem("play", channelItems()...),
		readline.PcItem("pause", channelItems()...),
		readline.PcItem("toggle", channelItems()...),
		readline.PcItem("volume", channelItems()...),
		readline.PcItem("time", channelItems()...),
		readline.PcItem("status"),
		readline.PcItem("panel"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func printChannels(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configured channels:")
	for _, ch := range channels(cfg) {
		loop := "once"
		if ch.Loop {
			loop = "loop"
		}
		fmt.Fprintf(w, "  %-10s %-5s volume %3.0f%%  %s\n", ch.ID, loop, ch.Volume*100, ch.Source)
	}
	if len(cfg.Bindings) > 0 {
		fmt.Fprintln(w, "Click bindings:")
		for _, b := range cfg.Bindings {
			fmt.Fprintf(w, "  %-10s %s %s\n", b.Element, strings.ToLower(b.Action), b.Channel)
		}
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
