// Command litejet-mockd runs a mock MCP over TCP.
//
// The daemon emulates a LiteJet panel well enough to develop and test
// clients without hardware: it answers queries from real emulated state
// and broadcasts the same unsolicited event lines the panel would.
// Point a client at it with -url socket://host:port.
//
// Usage:
//
//	litejet-mockd [flags]
//
// Flags:
//
//	-listen string     TCP listen address (default "127.0.0.1:2025")
//	-marker string     Start marker dialect: ^ or + (default "^")
//	-boards int        Installed board count: 1 or 2 (default 1)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Single-board caret-dialect panel
//	litejet-mockd
//
//	# Dual-board panel speaking the '+' dialect, chatty
//	litejet-mockd -boards 2 -marker + -log-level debug
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/litejet-protocol/litejet-go/internal/mockmcp"
)

var (
	listenAddr string
	marker     string
	boards     int
	logLevel   string
)

func init() {
	flag.StringVar(&listenAddr, "listen", "127.0.0.1:2025", "TCP listen address")
	flag.StringVar(&marker, "marker", "^", "Start marker dialect: ^ or +")
	flag.IntVar(&boards, "boards", 1, "Installed board count: 1 or 2")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	logger, err := setupLogging(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "litejet-mockd: %v\n", err)
		os.Exit(2)
	}

	if marker != "^" && marker != "+" {
		fmt.Fprintf(os.Stderr, "litejet-mockd: bad marker %q (use ^ or +)\n", marker)
		os.Exit(2)
	}
	if boards < 1 || boards > 2 {
		fmt.Fprintf(os.Stderr, "litejet-mockd: bad board count %d (use 1 or 2)\n", boards)
		os.Exit(2)
	}

	mcp := mockmcp.NewMCP(mockmcp.Config{
		Marker: marker[0],
		Boards: boards,
		Logger: logger,
	})
	server := mockmcp.NewServer(mcp, mockmcp.ServerConfig{
		Address: listenAddr,
		Logger:  logger,
	})

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "litejet-mockd: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	server.Stop()
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
