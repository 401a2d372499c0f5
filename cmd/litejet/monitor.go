package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/litejet-protocol/litejet-go/pkg/session"
	"github.com/litejet-protocol/litejet-go/pkg/subscription"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// monitor is the interactive mode: it streams panel events above a
// readline prompt and accepts the same commands as the one-shot CLI.
type monitor struct {
	s  *session.Session
	rl *readline.Instance
}

func runMonitor(ctx context.Context, s *session.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "litejet> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	m := &monitor{s: s, rl: rl}
	defer rl.Close()

	// One handler registered for every item key, so a single
	// Unsubscribe detaches the whole monitor.
	handler := subscription.FuncHandler(m.printEvent)
	for _, n := range s.Loads() {
		s.OnLoadActivated(n, handler)
		s.OnLoadDeactivated(n, handler)
	}
	for _, n := range s.AllSwitches() {
		s.OnSwitchPressed(n, handler)
		s.OnSwitchReleased(n, handler)
	}
	s.OnConnectedChanged(handler)
	defer s.Unsubscribe(handler)

	fmt.Fprintf(rl.Stdout(), "Connected to %s (%d board(s)). Streaming events; type 'help' for commands.\n",
		s.Model(), s.BoardCount())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			m.printHelp()

		case "list", "ls":
			if err := cmdList(ctx, m.s, rl.Stdout()); err != nil {
				fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
			}

		case "load":
			if err := cmdLoad(ctx, m.s, rl.Stdout(), args); err != nil {
				fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
			}

		case "scene":
			if err := cmdScene(ctx, m.s, rl.Stdout(), args); err != nil {
				fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
			}

		case "switch":
			if err := cmdSwitch(ctx, m.s, rl.Stdout(), args); err != nil {
				fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
			}

		case "status":
			m.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil

		default:
			fmt.Fprintf(rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (m *monitor) printHelp() {
	fmt.Fprintln(m.rl.Stdout(), `
LiteJet Monitor Commands:
  Control:
    load <n> on|off|get           - Switch a load, or read its level
    load <n> set <level> [over]   - Dim a load, optionally over a duration
    switch <n> press|release|get  - Press or release a switch, or read its name
    scene <n> get                 - Read a scene name

  Inspection:
    list               - List loads, scenes and switches
    status             - Show session status

  General:
    help               - Show this help
    quit               - Exit monitor

Events from the panel stream in as they happen.`)
}

// printEvent runs on the session dispatcher goroutine.
func (m *monitor) printEvent(event wire.Event) {
	fmt.Fprintf(m.rl.Stdout(), "\n[%s] %s\n", time.Now().Format("15:04:05"), event)
	m.rl.Refresh()
}

func (m *monitor) cmdStatus() {
	out := m.rl.Stdout()
	fmt.Fprintln(out, "\nSession Status")
	fmt.Fprintln(out, "-------------------------------------------")
	fmt.Fprintf(out, "  State:    %s\n", m.s.State())
	fmt.Fprintf(out, "  Model:    %s\n", m.s.Model())
	fmt.Fprintf(out, "  Boards:   %d\n", m.s.BoardCount())
	fmt.Fprintf(out, "  Marker:   %q\n", m.s.Marker())
	fmt.Fprintf(out, "  Conn ID:  %s\n", m.s.ConnectionID())
	fmt.Fprintln(out)
}
