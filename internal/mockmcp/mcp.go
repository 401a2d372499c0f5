package mockmcp

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Per-board status widths. The hardware reports 48 load bits and 160
// switch bits per board regardless of how many are installed.
const (
	loadStatusBits   = 48
	switchStatusBits = 160
)

// Config holds the emulated panel parameters.
type Config struct {
	// Marker is the start marker dialect the panel speaks, '^' or '+'.
	Marker byte

	// Boards is the installed board count, 1 or 2.
	Boards int

	// Logger receives interpreter diagnostics. Nil discards.
	Logger *slog.Logger
}

// MCP interprets the command stream and keeps the emulated panel state.
// Item numbers in the state maps are global: board 2 loads live at
// 41..80, board 2 switches at 139..276.
type MCP struct {
	config Config
	logger *slog.Logger

	mu        sync.Mutex
	loads     map[int]int
	switches  map[int]bool
	listeners []func(line string)
}

// NewMCP creates an emulated panel. Zero config fields take defaults.
func NewMCP(config Config) *MCP {
	if config.Marker == 0 {
		config.Marker = wire.MarkerCaret
	}
	if config.Boards < 1 {
		config.Boards = 1
	}
	if config.Boards > 2 {
		config.Boards = 2
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MCP{
		config:   config,
		logger:   logger,
		loads:    make(map[int]int),
		switches: make(map[int]bool),
	}
}

// Marker returns the start marker dialect the panel answers to.
func (m *MCP) Marker() byte {
	return m.config.Marker
}

// Boards returns the installed board count.
func (m *MCP) Boards() int {
	return m.config.Boards
}

// AddListener registers a sink for unsolicited broadcast lines. The
// line carries no terminator.
func (m *MCP) AddListener(fn func(line string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// HandleInput consumes at most one command from data and returns how
// many bytes it used plus the reply line, if the command has one.
// Bytes before the start marker are dropped so the interpreter resyncs
// after line noise. consumed == 0 means data holds only a partial
// command and the caller should retry with more bytes.
func (m *MCP) HandleInput(data []byte) (consumed int, response string) {
	if len(data) == 0 {
		return 0, ""
	}

	if data[0] != m.config.Marker {
		skip := bytes.IndexByte(data, m.config.Marker)
		if skip < 0 {
			skip = len(data)
		}
		m.logger.Debug("skipped bytes before start marker", "count", skip)
		return skip, ""
	}
	if len(data) < 2 {
		return 0, ""
	}

	verb := data[1]
	board := 1
	if verb >= 'a' && verb <= 'z' {
		board = 2
		verb -= 'a' - 'A'
	}

	length := commandLength(verb)
	if length == 0 {
		// Unknown verb: drop the marker and rescan from the next byte.
		m.logger.Warn("unknown command verb", "verb", string(data[1]))
		return 1, ""
	}
	if len(data) < length {
		return 0, ""
	}

	if board > m.config.Boards {
		// Commands for a board that is not installed get no answer.
		m.logger.Debug("ignoring command for absent board", "command", string(data[:length]))
		return length, ""
	}

	number := 0
	if length >= 5 {
		n, err := strconv.Atoi(string(data[2:5]))
		if err != nil {
			m.logger.Warn("malformed item number", "command", string(data[:length]))
			return 1, ""
		}
		number = n
	}

	switch verb {
	case wire.VerbActivateLoad:
		m.SetLoad(m.globalLoad(board, number), 99)
	case wire.VerbDeactivateLoad:
		m.SetLoad(m.globalLoad(board, number), 0)
	case wire.VerbActivateScene, wire.VerbDeactivateScene:
		m.logger.Warn("scenes not supported", "command", string(data[:length]))
	case wire.VerbSetLoadLevel:
		level, err := strconv.Atoi(string(data[5:7]))
		if err != nil {
			m.logger.Warn("malformed level", "command", string(data[:length]))
			return 1, ""
		}
		if _, err := strconv.Atoi(string(data[7:9])); err != nil {
			m.logger.Warn("malformed rate", "command", string(data[:length]))
			return 1, ""
		}
		// The rate is accepted and ignored: levels take effect at once.
		m.SetLoad(m.globalLoad(board, number), level)
	case wire.VerbGetLoadLevel:
		response = fmt.Sprintf("%02d", m.LoadLevel(m.globalLoad(board, number)))
	case wire.VerbGetAllLoadStates:
		response = m.loadStatus(board)
	case wire.VerbGetAllSwitchStates:
		response = m.switchStatus(board)
	case wire.VerbPressSwitch:
		m.SetSwitch(m.globalSwitch(board, number), true)
	case wire.VerbReleaseSwitch:
		m.SetSwitch(m.globalSwitch(board, number), false)
	case wire.VerbGetSwitchName:
		response = fmt.Sprintf("Switch #%d", m.globalSwitch(board, number))
	case wire.VerbGetLoadName:
		response = fmt.Sprintf("Load #%d", m.globalLoad(board, number))
	case wire.VerbGetSceneName:
		response = fmt.Sprintf("Scene #%d", m.globalScene(board, number))
	}
	return length, response
}

// commandLength returns the fixed byte length of a command by its
// uppercase verb, or 0 when the verb is unknown.
func commandLength(verb byte) int {
	switch verb {
	case wire.VerbGetAllLoadStates, wire.VerbGetAllSwitchStates:
		return 2
	case wire.VerbSetLoadLevel:
		return 9
	case wire.VerbActivateLoad, wire.VerbDeactivateLoad,
		wire.VerbActivateScene, wire.VerbDeactivateScene,
		wire.VerbGetLoadLevel,
		wire.VerbPressSwitch, wire.VerbReleaseSwitch,
		wire.VerbGetSwitchName, wire.VerbGetLoadName, wire.VerbGetSceneName:
		return 5
	default:
		return 0
	}
}

// SetLoad stores a load level and broadcasts the dim report. Every call
// broadcasts, matching hardware which reports the level even when it
// did not change.
func (m *MCP) SetLoad(number, level int) {
	m.mu.Lock()
	m.loads[number] = level
	m.mu.Unlock()
	m.broadcast(fmt.Sprintf("%cK%03d%02d", m.config.Marker, number, level))
}

// SetSwitch stores a switch state and broadcasts the press or release,
// but only when the state actually changed.
func (m *MCP) SetSwitch(number int, pressed bool) {
	m.mu.Lock()
	if m.switches[number] == pressed {
		m.mu.Unlock()
		return
	}
	m.switches[number] = pressed
	m.mu.Unlock()

	verb := byte('R')
	if pressed {
		verb = 'P'
	}
	m.broadcast(fmt.Sprintf("%c%03d", verb, number))
}

// LoadLevel returns the stored level of a load, 0 if never set.
func (m *MCP) LoadLevel(number int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[number]
}

// SwitchPressed reports whether a switch is currently held.
func (m *MCP) SwitchPressed(number int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switches[number]
}

func (m *MCP) broadcast(line string) {
	m.mu.Lock()
	listeners := make([]func(string), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	m.logger.Debug("broadcast", "line", line)
	for _, fn := range listeners {
		fn(line)
	}
}

func (m *MCP) loadStatus(board int) string {
	base := (board - 1) * wire.LastLoad
	states := make(map[int]bool, wire.LastLoad)
	m.mu.Lock()
	for n := 1; n <= wire.LastLoad; n++ {
		states[n] = m.loads[base+n] > 0
	}
	m.mu.Unlock()
	return wire.EncodeBits(states, 1, loadStatusBits)
}

func (m *MCP) switchStatus(board int) string {
	base := (board - 1) * wire.LastSwitch
	states := make(map[int]bool, wire.LastSwitch)
	m.mu.Lock()
	for n := 1; n <= wire.LastSwitch; n++ {
		states[n] = m.switches[base+n]
	}
	m.mu.Unlock()
	return wire.EncodeBits(states, 1, switchStatusBits)
}

func (m *MCP) globalLoad(board, local int) int {
	return (board-1)*wire.LastLoad + local
}

func (m *MCP) globalSwitch(board, local int) int {
	return (board-1)*wire.LastSwitch + local
}

func (m *MCP) globalScene(board, local int) int {
	return (board-1)*wire.LastScene + local
}
