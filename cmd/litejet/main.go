// Command litejet controls a LiteJet lighting panel from the command line.
//
// Usage:
//
//	litejet [flags] <command> [args]
//
// Flags:
//
//	-url string        Connection URL: serial device path or socket://host:port
//	-config string     YAML configuration file path
//	-timeout duration  Reply timeout per command (default 1s)
//	-log-level string  Log level: debug, info, warn, error (default "warn")
//	-capture string    Write a protocol capture (CBOR stream) to this file
//
// Commands:
//
//	list                          List loads, scenes and switches with names and states
//	load <n> on|off|get           Switch a load on or off, or read its level
//	load <n> set <level> [over]   Dim a load to level 0-99, optionally over a duration
//	scene <n> get                 Read a scene name
//	switch <n> press|release|get  Press or release a switch, or read its name
//	monitor                       Interactive mode: stream events, issue commands
//
// Examples:
//
//	# List everything on the panel behind a USB serial adapter
//	litejet -url /dev/ttyUSB0 list
//
//	# Dim load 5 to 75% over two seconds
//	litejet -url /dev/ttyUSB0 load 5 set 75 2s
//
//	# Watch events from a mock MCP, recording the wire traffic
//	litejet -url socket://127.0.0.1:2025 -capture traffic.ljlog monitor
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litejet-protocol/litejet-go/pkg/log"
	"github.com/litejet-protocol/litejet-go/pkg/session"
)

// Config holds the resolved CLI configuration.
type Config struct {
	URL      string
	Timeout  time.Duration
	LogLevel string
	Capture  string
}

// fileConfig is the YAML layout. Timeout is a duration string ("750ms").
type fileConfig struct {
	URL      string `yaml:"url"`
	Timeout  string `yaml:"timeout"`
	LogLevel string `yaml:"log_level"`
	Capture  string `yaml:"capture"`
}

var (
	configFile string
	flagConfig Config
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file path")
	flag.StringVar(&flagConfig.URL, "url", "", "Connection URL: serial device path or socket://host:port")
	flag.DurationVar(&flagConfig.Timeout, "timeout", session.DefaultTimeout, "Reply timeout per command")
	flag.StringVar(&flagConfig.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&flagConfig.Capture, "capture", "", "Write a protocol capture (CBOR stream) to this file")
}

func main() {
	flag.Parse()

	cfg, err := resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "litejet: %v\n", err)
		os.Exit(2)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "litejet: no command (try list, load, scene, switch, monitor)")
		os.Exit(2)
	}
	if cfg.URL == "" {
		fmt.Fprintln(os.Stderr, "litejet: no connection URL (use -url or a config file)")
		os.Exit(2)
	}

	logger, err := setupLogging(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "litejet: %v\n", err)
		os.Exit(2)
	}

	sessionConfig := session.DefaultConfig(cfg.URL)
	sessionConfig.Timeout = cfg.Timeout
	sessionConfig.Logger = logger
	var plogs []log.Logger
	if cfg.Capture != "" {
		capture, err := log.NewFileLogger(cfg.Capture)
		if err != nil {
			fmt.Fprintf(os.Stderr, "litejet: open capture file: %v\n", err)
			os.Exit(1)
		}
		defer capture.Close()
		plogs = append(plogs, capture)
	}
	if cfg.LogLevel == "debug" {
		// Debug level also echoes protocol traffic to the console.
		plogs = append(plogs, log.NewSlogAdapter(logger))
	}
	switch len(plogs) {
	case 0:
	case 1:
		sessionConfig.ProtocolLogger = plogs[0]
	default:
		sessionConfig.ProtocolLogger = log.NewMultiLogger(plogs...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := session.New(sessionConfig)
	if err := s.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "litejet: open %s: %v\n", cfg.URL, err)
		os.Exit(1)
	}
	defer s.Close()

	if err := run(ctx, s, args); err != nil {
		fmt.Fprintf(os.Stderr, "litejet: %v\n", err)
		s.Close()
		os.Exit(1)
	}
}

// resolveConfig merges the config file (if any) with explicitly set flags,
// flags winning.
func resolveConfig() (Config, error) {
	cfg := Config{
		Timeout:  session.DefaultTimeout,
		LogLevel: "warn",
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", configFile, err)
		}
		if fc.URL != "" {
			cfg.URL = fc.URL
		}
		if fc.Timeout != "" {
			d, err := time.ParseDuration(fc.Timeout)
			if err != nil {
				return Config{}, fmt.Errorf("config timeout %q: %w", fc.Timeout, err)
			}
			cfg.Timeout = d
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
		if fc.Capture != "" {
			cfg.Capture = fc.Capture
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.URL = flagConfig.URL
		case "timeout":
			cfg.Timeout = flagConfig.Timeout
		case "log-level":
			cfg.LogLevel = flagConfig.LogLevel
		case "capture":
			cfg.Capture = flagConfig.Capture
		}
	})
	return cfg, nil
}

func setupLogging(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (use: debug, info, warn, error)", level)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}

func run(ctx context.Context, s *session.Session, args []string) error {
	switch args[0] {
	case "list":
		return cmdList(ctx, s, os.Stdout)
	case "load":
		return cmdLoad(ctx, s, os.Stdout, args[1:])
	case "scene":
		return cmdScene(ctx, s, os.Stdout, args[1:])
	case "switch":
		return cmdSwitch(ctx, s, os.Stdout, args[1:])
	case "monitor":
		return runMonitor(ctx, s)
	default:
		return fmt.Errorf("unknown command %q (try list, load, scene, switch, monitor)", args[0])
	}
}

// cmdList prints every load, scene and switch with its name, plus the
// current on/off state where the panel reports one.
func cmdList(ctx context.Context, s *session.Session, w io.Writer) error {
	fmt.Fprintf(w, "Panel: %s (marker %q, %d board(s))\n", s.Model(), s.Marker(), s.BoardCount())

	loadStates, err := s.GetAllLoadStates(ctx)
	if err != nil {
		return fmt.Errorf("read load states: %w", err)
	}
	fmt.Fprintf(w, "\nLoads (%d):\n", len(loadStates))
	for _, n := range s.Loads() {
		name, err := s.GetLoadName(ctx, n)
		if err != nil {
			return fmt.Errorf("read load %d name: %w", n, err)
		}
		state := "off"
		if loadStates[n] {
			state = "on"
		}
		fmt.Fprintf(w, "  %3d  %-24s %s\n", n, name, state)
	}

	fmt.Fprintf(w, "\nScenes (%d):\n", len(s.Scenes()))
	for _, n := range s.Scenes() {
		name, err := s.GetSceneName(ctx, n)
		if err != nil {
			return fmt.Errorf("read scene %d name: %w", n, err)
		}
		fmt.Fprintf(w, "  %3d  %s\n", n, name)
	}

	switchStates, err := s.GetAllSwitchStates(ctx)
	if err != nil {
		return fmt.Errorf("read switch states: %w", err)
	}
	fmt.Fprintf(w, "\nSwitches (%d):\n", len(switchStates))
	for _, n := range s.AllSwitches() {
		name, err := s.GetSwitchName(ctx, n)
		if err != nil {
			return fmt.Errorf("read switch %d name: %w", n, err)
		}
		state := ""
		if switchStates[n] {
			state = "  [pressed]"
		}
		fmt.Fprintf(w, "  %3d  %s%s\n", n, name, state)
	}
	return nil
}

func cmdLoad(ctx context.Context, s *session.Session, w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: load <number> on|off|get|set <level> [over]")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad load number %q", args[0])
	}

	switch args[1] {
	case "on":
		return s.ActivateLoad(ctx, number)
	case "off":
		return s.DeactivateLoad(ctx, number)
	case "get":
		level, err := s.GetLoadLevel(ctx, number)
		if err != nil {
			return err
		}
		name, err := s.GetLoadName(ctx, number)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %d\n", name, level)
		return nil
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: load <number> set <level> [over]")
		}
		level, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad level %q", args[2])
		}
		var over time.Duration
		if len(args) >= 4 {
			over, err = time.ParseDuration(args[3])
			if err != nil {
				return fmt.Errorf("bad duration %q", args[3])
			}
		}
		return s.ActivateLoadAt(ctx, number, level, over)
	default:
		return fmt.Errorf("unknown load action %q (use on, off, get, set)", args[1])
	}
}

func cmdScene(ctx context.Context, s *session.Session, w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: scene <number> get")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad scene number %q", args[0])
	}

	switch args[1] {
	case "get":
		name, err := s.GetSceneName(ctx, number)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, name)
		return nil
	default:
		return fmt.Errorf("unknown scene action %q (use get)", args[1])
	}
}

func cmdSwitch(ctx context.Context, s *session.Session, w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: switch <number> press|release|get")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad switch number %q", args[0])
	}

	switch args[1] {
	case "press":
		return s.PressSwitch(ctx, number)
	case "release":
		return s.ReleaseSwitch(ctx, number)
	case "get":
		name, err := s.GetSwitchName(ctx, number)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, name)
		return nil
	default:
		return fmt.Errorf("unknown switch action %q (use press, release, get)", args[1])
	}
}
